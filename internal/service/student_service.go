package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, tenantID, id string) error
	SetPhotoKey(ctx context.Context, tenantID, id string, key *string) error
}

// PhotoBackend is the object store holding student photos. It stays nil when
// storage is disabled and photo endpoints answer with a precondition error.
type PhotoBackend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Phone     *string    `json:"phone"`
	Gender    *string    `json:"gender" validate:"omitempty,oneof=F M O"`
	Birthdate *time.Time `json:"birthdate"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Phone     *string    `json:"phone"`
	Gender    *string    `json:"gender" validate:"omitempty,oneof=F M O"`
	Birthdate *time.Time `json:"birthdate"`
	Active    bool       `json:"is_active"`
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	photos    PhotoBackend
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service. The photo store may be nil
// when object storage is disabled.
func NewStudentService(repo studentRepository, photos PhotoBackend, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, photos: photos, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	pagination := &models.Pagination{Limit: limit, Offset: offset, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, tenantID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, tenantID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		TenantID:  tenantID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthdate: req.Birthdate,
		Active:    true,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		student.Gender = &g
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, tenantID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.Birthdate = req.Birthdate
	student.Active = req.Active
	student.Gender = nil
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		student.Gender = &g
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student and any stored photo.
func (s *StudentService) Delete(ctx context.Context, tenantID, id string) error {
	student, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if student.PhotoKey != nil && s.photos != nil {
		if err := s.photos.Remove(ctx, *student.PhotoKey); err != nil {
			s.logger.Warn("failed to remove student photo", zap.String("student_id", id), zap.Error(err))
		}
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// UploadPhoto stores the student's photo in the object store and records its key.
func (s *StudentService) UploadPhoto(ctx context.Context, tenantID, id, filename, contentType string, r io.Reader, size int64) (*models.Student, error) {
	if s.photos == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "photo storage is not configured")
	}
	student, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", tenantID, id, path.Ext(filename))
	if _, err := s.photos.Put(ctx, key, r, size, contentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	if err := s.repo.SetPhotoKey(ctx, tenantID, id, &key); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record photo key")
	}
	student.PhotoKey = &key
	return student, nil
}

// PhotoURL returns a temporary download URL for the student's photo.
func (s *StudentService) PhotoURL(ctx context.Context, tenantID, id string) (string, error) {
	if s.photos == nil {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "photo storage is not configured")
	}
	student, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if student.PhotoKey == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "student has no photo")
	}
	url, err := s.photos.PresignedURL(ctx, *student.PhotoKey, 15*time.Minute)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign photo url")
	}
	return url, nil
}
