package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments map[string]models.Payment
	listed   []models.PaymentDetail
	created  *models.Payment
}

func (m *mockPaymentRepo) List(ctx context.Context, tenantID string, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	start := filter.Offset
	if start > len(m.listed) {
		start = len(m.listed)
	}
	end := len(m.listed)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return m.listed[start:end], len(m.listed), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, tenantID, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "new-payment"
	}
	m.payments[payment.ID] = *payment
	m.created = payment
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentRepo) TotalsByTeacher(ctx context.Context, tenantID string, from, to *time.Time) ([]models.TeacherPaymentSummary, error) {
	return []models.TeacherPaymentSummary{{TeacherID: "tch-1", TeacherName: "Marta Ruiz", PaymentCount: 2, Total: 1500}}, nil
}

func TestPaymentCreateAppliesPercentageDiscount(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := NewPaymentService(repo, nil, nil, nil)

	date := day(2024, time.January, 5)
	payment, err := svc.Create(context.Background(), "tn-1", PaymentRequest{
		StudentID:   "stu-1",
		Amount:      1000,
		Discount:    "10%",
		Method:      "cash",
		Type:        "monthly",
		PaymentDate: &date,
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, payment.Amount)
	assert.Equal(t, date, payment.PaymentDate)
	require.NotNil(t, repo.created)
}

func TestPaymentCreateFlatDiscountStaysFlat(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	// A bare "50" is 50 currency units off, never 50 percent.
	payment, err := svc.Create(context.Background(), "tn-1", PaymentRequest{
		StudentID: "stu-1",
		Amount:    1000,
		Discount:  "50",
		Method:    "card",
		Type:      "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, 950.0, payment.Amount)
}

func TestPaymentCreateRejectsUnknownMethod(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), "tn-1", PaymentRequest{
		StudentID: "stu-1",
		Amount:    100,
		Method:    "check",
		Type:      "monthly",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentQuoteDistributesFlatDiscount(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	quote, err := svc.QuoteDiscount(QuoteRequest{Lines: []float64{300, 200}, Discount: "350"})
	require.NoError(t, err)
	assert.Equal(t, 500.0, quote.Subtotal)
	assert.Equal(t, 350.0, quote.Applied)
	assert.Equal(t, 150.0, quote.Total)
	assert.Equal(t, []float64{0, 150}, quote.Lines)
}

func TestPaymentQuoteClampsPercentage(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	quote, err := svc.QuoteDiscount(QuoteRequest{Lines: []float64{400}, Discount: "150%"})
	require.NoError(t, err)
	assert.Equal(t, 400.0, quote.Applied)
	assert.Equal(t, 0.0, quote.Total)
}

func TestPaymentExportCSV(t *testing.T) {
	courseName := "Ballet II"
	repo := &mockPaymentRepo{listed: []models.PaymentDetail{
		{
			Payment: models.Payment{
				ID: "pay-1", StudentID: "stu-1", Amount: 750,
				Method: models.PaymentMethodCash, Type: models.PaymentTypeMonthly,
				PaymentDate: day(2024, time.January, 5),
			},
			StudentName: "Ana Flores",
			CourseName:  &courseName,
		},
	}}
	svc := NewPaymentService(repo, nil, nil, nil)

	data, contentType, err := svc.Export(context.Background(), "tn-1", "csv", models.PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "Date,Student,Course,Type,Method,Amount,Reference"))
	assert.Contains(t, body, "2024-01-05,Ana Flores,Ballet II,monthly,cash,750.00,")
}

func TestPaymentExportWalksAllPages(t *testing.T) {
	repo := &mockPaymentRepo{}
	for i := 0; i < exportPageSize+50; i++ {
		repo.listed = append(repo.listed, models.PaymentDetail{
			Payment: models.Payment{
				ID: "pay", StudentID: "stu-1", Amount: 100,
				Method: models.PaymentMethodCash, Type: models.PaymentTypeMonthly,
				PaymentDate: day(2024, time.January, 5),
			},
			StudentName: "Ana Flores",
		})
	}
	svc := NewPaymentService(repo, nil, nil, nil)

	data, _, err := svc.Export(context.Background(), "tn-1", "csv", models.PaymentFilter{})
	require.NoError(t, err)

	// Header line plus one line per payment, past the first page.
	lines := strings.Count(strings.TrimRight(string(data), "\n"), "\n") + 1
	assert.Equal(t, exportPageSize+50+1, lines)
}

func TestPaymentExportUnknownFormat(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	_, _, err := svc.Export(context.Background(), "tn-1", "xlsx", models.PaymentFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentByTeacher(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, nil, nil, nil)

	summaries, err := svc.ByTeacher(context.Background(), "tn-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1500.0, summaries[0].Total)
}
