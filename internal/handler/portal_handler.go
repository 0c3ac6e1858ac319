package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioflow/pms-api/internal/service"
	"github.com/studioflow/pms-api/pkg/response"
)

// PortalHandler exposes the aggregated student detail view.
type PortalHandler struct {
	portal *service.PortalService
}

// NewPortalHandler constructs PortalHandler.
func NewPortalHandler(portal *service.PortalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// Get godoc
// @Summary Student portal
// @Tags Portal
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/portal [get]
func (h *PortalHandler) Get(c *gin.Context) {
	portal, err := h.portal.Portal(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, portal, nil)
}
