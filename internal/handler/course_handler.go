package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studioflow/pms-api/internal/models"
	"github.com/studioflow/pms-api/internal/service"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
	"github.com/studioflow/pms-api/pkg/response"
)

// CourseHandler exposes course catalog endpoints.
type CourseHandler struct {
	courses *service.CourseService
	status  *service.CourseStatusService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, status *service.CourseStatusService) *CourseHandler {
	return &CourseHandler{courses: courses, status: status}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param q query string false "Search by name or level"
// @Param teacher_q query string false "Search by teacher name"
// @Param day_of_week query int false "Filter by weekday (0=Monday)"
// @Param type query string false "Course type"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Query:        strings.TrimSpace(c.Query("q")),
		TeacherQuery: strings.TrimSpace(c.Query("teacher_q")),
		CourseType:   models.CourseType(c.Query("type")),
		Limit:        queryInt(c, "limit", 20),
		Offset:       queryInt(c, "offset", 0),
	}
	if raw := c.Query("day_of_week"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil && day >= 0 && day <= 6 {
			filter.DayOfWeek = &day
		}
	}
	courses, pagination, err := h.courses.List(c.Request.Context(), tenantFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), tenantFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), tenantFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), tenantFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Status godoc
// @Summary Course roster with derived billing state
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/status [get]
func (h *CourseHandler) Status(c *gin.Context) {
	status, err := h.status.Compose(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// StatusBoard godoc
// @Summary Roster board across courses with derived billing state
// @Tags Courses
// @Produce json
// @Param day_of_week query int false "Filter courses by slot weekday (0=Monday)"
// @Param attendance_days query int false "Keep only students with at least this many attended classes"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /course_status [get]
func (h *CourseHandler) StatusBoard(c *gin.Context) {
	filter := models.CourseStatusFilter{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("day_of_week"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil && day >= 0 && day <= 6 {
			filter.DayOfWeek = &day
		}
	}
	if raw := c.Query("attendance_days"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days >= 0 {
			filter.AttendanceDays = &days
		}
	}
	board, pagination, err := h.status.ComposeAll(c.Request.Context(), tenantFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, pagination)
}
