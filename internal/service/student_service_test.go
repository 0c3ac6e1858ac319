package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	created  *models.Student
	photoKey *string
}

func (m *mockStudentRepo) List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "new-student"
	}
	m.students[student.ID] = *student
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) SetPhotoKey(ctx context.Context, tenantID, id string, key *string) error {
	m.photoKey = key
	return nil
}

func TestStudentCreateDefaultsActive(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, nil, nil)

	student, err := svc.Create(context.Background(), "tn-1", CreateStudentRequest{FirstName: "Ana", LastName: "Flores"})
	require.NoError(t, err)
	assert.True(t, student.Active)
	assert.Equal(t, "tn-1", student.TenantID)
	require.NotNil(t, repo.created)
}

func TestStudentCreateRequiresFirstName(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), "tn-1", CreateStudentRequest{LastName: "Flores"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentGetMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "tn-1", "stu-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentUploadPhotoWithoutStorage(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ana"},
	}}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.UploadPhoto(context.Background(), "tn-1", "stu-1", "ana.jpg", "image/jpeg", nil, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
