package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
	"github.com/studioflow/pms-api/pkg/export"
)

type paymentRepository interface {
	List(ctx context.Context, tenantID string, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, tenantID, id string) error
	TotalsByTeacher(ctx context.Context, tenantID string, from, to *time.Time) ([]models.TeacherPaymentSummary, error)
}

// PaymentRequest holds payload for recording and updating payments. Discount
// accepts a flat amount ("100") or a percentage ("10%") applied to Amount.
type PaymentRequest struct {
	StudentID    string     `json:"student_id" validate:"required"`
	CourseID     *string    `json:"course_id"`
	EnrollmentID *string    `json:"enrollment_id"`
	Amount       float64    `json:"amount" validate:"min=0"`
	Discount     string     `json:"discount"`
	Method       string     `json:"method" validate:"required"`
	Type         string     `json:"type" validate:"required,oneof=monthly single_class rental other"`
	PaymentDate  *time.Time `json:"payment_date"`
	Reference    *string    `json:"reference"`
	Notes        *string    `json:"notes"`
}

// QuoteRequest asks for a discount preview over a set of line amounts.
type QuoteRequest struct {
	Lines    []float64 `json:"lines" validate:"required,min=1"`
	Discount string    `json:"discount"`
}

// Quote is the discount preview: post-discount lines and totals.
type Quote struct {
	Lines    []float64 `json:"lines"`
	Subtotal float64   `json:"subtotal"`
	Applied  float64   `json:"applied"`
	Total    float64   `json:"total"`
}

// PaymentService handles the payment ledger use-cases.
type PaymentService struct {
	repo      paymentRepository
	cache     *CacheService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:      repo,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns payments and pagination metadata.
func (s *PaymentService) List(ctx context.Context, tenantID string, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return payments, &models.Pagination{Limit: limit, Offset: offset, TotalCount: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, tenantID, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Create records a payment. A discount spec, when present, is applied to the
// amount before persisting.
func (s *PaymentService) Create(ctx context.Context, tenantID string, req PaymentRequest) (*models.Payment, error) {
	payment, err := s.buildPayment(tenantID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	s.invalidate(ctx, tenantID, payment)
	return payment, nil
}

// Update replaces a payment's mutable fields.
func (s *PaymentService) Update(ctx context.Context, tenantID, id string, req PaymentRequest) (*models.Payment, error) {
	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	payment, err := s.buildPayment(tenantID, req)
	if err != nil {
		return nil, err
	}
	payment.ID = existing.ID
	payment.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	s.invalidate(ctx, tenantID, payment)
	return payment, nil
}

// Delete removes a payment row.
func (s *PaymentService) Delete(ctx context.Context, tenantID, id string) error {
	payment, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	s.invalidate(ctx, tenantID, payment)
	return nil
}

// QuoteDiscount previews a discount over line amounts. Percentages apply to
// the subtotal; flat amounts are spread across lines in order.
func (s *PaymentService) QuoteDiscount(req QuoteRequest) (*Quote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	subtotal := 0.0
	for _, line := range req.Lines {
		if line < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "line amounts must not be negative")
		}
		subtotal += line
	}
	discount, err := billing.ApplyDiscount(subtotal, req.Discount)
	if err != nil {
		return nil, err
	}
	lines, _ := billing.DistributeDiscount(req.Lines, discount.Applied)
	return &Quote{Lines: lines, Subtotal: subtotal, Applied: discount.Applied, Total: discount.Total}, nil
}

// ByTeacher aggregates payment totals per teacher over an optional date range.
func (s *PaymentService) ByTeacher(ctx context.Context, tenantID string, from, to *time.Time) ([]models.TeacherPaymentSummary, error) {
	summaries, err := s.repo.TotalsByTeacher(ctx, tenantID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate payments")
	}
	return summaries, nil
}

// exportPageSize is the page size used when walking the ledger for export.
const exportPageSize = 200

// Export renders the filtered payment list as CSV or PDF bytes. The full
// filtered set is exported, paged through in batches.
func (s *PaymentService) Export(ctx context.Context, tenantID, format string, filter models.PaymentFilter) ([]byte, string, error) {
	filter.Limit = exportPageSize
	filter.Offset = 0
	var payments []models.PaymentDetail
	for {
		page, _, err := s.repo.List(ctx, tenantID, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
		}
		payments = append(payments, page...)
		if len(page) < exportPageSize {
			break
		}
		filter.Offset += exportPageSize
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Student", "Course", "Type", "Method", "Amount", "Reference"},
	}
	for _, p := range payments {
		course := ""
		if p.CourseName != nil {
			course = *p.CourseName
		}
		reference := ""
		if p.Reference != nil {
			reference = *p.Reference
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      p.PaymentDate.Format("2006-01-02"),
			"Student":   p.StudentName,
			"Course":    course,
			"Type":      string(p.Type),
			"Method":    string(p.Method),
			"Amount":    fmt.Sprintf("%.2f", p.Amount),
			"Reference": reference,
		})
	}

	switch format {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Payments")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *PaymentService) buildPayment(tenantID string, req PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	method := models.PaymentMethod(req.Method)
	if !method.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported payment method")
	}

	amount := req.Amount
	if req.Discount != "" {
		discount, err := billing.ApplyDiscount(req.Amount, req.Discount)
		if err != nil {
			return nil, err
		}
		amount = discount.Total
	}

	date := time.Now().UTC()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	return &models.Payment{
		TenantID:     tenantID,
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		EnrollmentID: req.EnrollmentID,
		Amount:       amount,
		Method:       method,
		Type:         models.PaymentType(req.Type),
		PaymentDate:  billing.DayStart(date),
		Reference:    req.Reference,
		Notes:        req.Notes,
	}, nil
}

func (s *PaymentService) invalidate(ctx context.Context, tenantID string, payment *models.Payment) {
	if s.cache == nil {
		return
	}
	if payment.CourseID != nil {
		_ = s.cache.Invalidate(ctx, courseStatusCacheKey(tenantID, *payment.CourseID)+"*")
	}
	_ = s.cache.Invalidate(ctx, portalCacheKey(tenantID, payment.StudentID))
}
