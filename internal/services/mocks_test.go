package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository bundles the per-entity mocks behind repositories.Repository
type MockRepository struct {
	roles    *MockUserRoleRepository
	patients *MockPatientRepository
	memories *MockMemoryRepository
	sessions *MockQuizSessionRepository
	results  *MockQuizResultRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		roles:    &MockUserRoleRepository{},
		patients: &MockPatientRepository{},
		memories: &MockMemoryRepository{},
		sessions: &MockQuizSessionRepository{},
		results:  &MockQuizResultRepository{},
	}
}

func (m *MockRepository) UserRole() repositories.UserRoleRepository       { return m.roles }
func (m *MockRepository) Patient() repositories.PatientRepository         { return m.patients }
func (m *MockRepository) Memory() repositories.MemoryRepository           { return m.memories }
func (m *MockRepository) QuizSession() repositories.QuizSessionRepository { return m.sessions }
func (m *MockRepository) QuizResult() repositories.QuizResultRepository   { return m.results }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.roles.AssertExpectations(t)
	m.patients.AssertExpectations(t)
	m.memories.AssertExpectations(t)
	m.sessions.AssertExpectations(t)
	m.results.AssertExpectations(t)
}

// ===== USER ROLES =====

type MockUserRoleRepository struct {
	mock.Mock
}

func (m *MockUserRoleRepository) GetBySub(ctx context.Context, tx *gorm.DB, sub string) (*models.UserRoleRecord, error) {
	args := m.Called(ctx, tx, sub)
	record, _ := args.Get(0).(*models.UserRoleRecord)
	return record, args.Error(1)
}

func (m *MockUserRoleRepository) Upsert(ctx context.Context, tx *gorm.DB, record *models.UserRoleRecord) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

// ===== PATIENTS =====

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, tx *gorm.DB, patient *models.Patient) error {
	args := m.Called(ctx, tx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Patient, error) {
	args := m.Called(ctx, tx, id)
	patient, _ := args.Get(0).(*models.Patient)
	return patient, args.Error(1)
}

func (m *MockPatientRepository) GetByPatientSub(ctx context.Context, tx *gorm.DB, patientSub string) (*models.Patient, error) {
	args := m.Called(ctx, tx, patientSub)
	patient, _ := args.Get(0).(*models.Patient)
	return patient, args.Error(1)
}

func (m *MockPatientRepository) ListByCaregiver(ctx context.Context, tx *gorm.DB, caregiverSub string) ([]*models.Patient, error) {
	args := m.Called(ctx, tx, caregiverSub)
	patients, _ := args.Get(0).([]*models.Patient)
	return patients, args.Error(1)
}

func (m *MockPatientRepository) LinkAccount(ctx context.Context, tx *gorm.DB, patientID, patientSub string) error {
	args := m.Called(ctx, tx, patientID, patientSub)
	return args.Error(0)
}

// ===== MEMORIES =====

type MockMemoryRepository struct {
	mock.Mock
}

func (m *MockMemoryRepository) Create(ctx context.Context, tx *gorm.DB, memory *models.Memory) error {
	args := m.Called(ctx, tx, memory)
	return args.Error(0)
}

func (m *MockMemoryRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Memory, error) {
	args := m.Called(ctx, tx, id)
	memory, _ := args.Get(0).(*models.Memory)
	return memory, args.Error(1)
}

func (m *MockMemoryRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Memory, error) {
	args := m.Called(ctx, tx, ids)
	memories, _ := args.Get(0).([]*models.Memory)
	return memories, args.Error(1)
}

func (m *MockMemoryRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.MemoryFilters) ([]*models.Memory, error) {
	args := m.Called(ctx, tx, filters)
	memories, _ := args.Get(0).([]*models.Memory)
	return memories, args.Error(1)
}

func (m *MockMemoryRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, tx, id, fields)
	return args.Error(0)
}

func (m *MockMemoryRepository) MarkPrioritized(ctx context.Context, tx *gorm.DB, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// ===== QUIZ SESSIONS =====

type MockQuizSessionRepository struct {
	mock.Mock
}

func (m *MockQuizSessionRepository) Create(ctx context.Context, tx *gorm.DB, session *models.QuizSession) error {
	args := m.Called(ctx, tx, session)
	return args.Error(0)
}

func (m *MockQuizSessionRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error) {
	args := m.Called(ctx, tx, id)
	session, _ := args.Get(0).(*models.QuizSession)
	return session, args.Error(1)
}

func (m *MockQuizSessionRepository) GetByIDWithHistory(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error) {
	args := m.Called(ctx, tx, id)
	session, _ := args.Get(0).(*models.QuizSession)
	return session, args.Error(1)
}

func (m *MockQuizSessionRepository) AppendAnswer(ctx context.Context, tx *gorm.DB, event *models.AnswerEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockQuizSessionRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, id string, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, completedAt)
	return args.Bool(0), args.Error(1)
}

// ===== QUIZ RESULTS =====

type MockQuizResultRepository struct {
	mock.Mock
}

func (m *MockQuizResultRepository) Upsert(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	args := m.Called(ctx, tx, result)
	return args.Error(0)
}

func (m *MockQuizResultRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizResult, error) {
	args := m.Called(ctx, tx, id)
	result, _ := args.Get(0).(*models.QuizResult)
	return result, args.Error(1)
}

func (m *MockQuizResultRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	args := m.Called(ctx, tx, filters)
	results, _ := args.Get(0).([]*models.QuizResult)
	return results, args.Get(1).(int64), args.Error(2)
}

// ===== GENERATIVE MODEL =====

type MockGenerativeModel struct {
	mock.Mock
	ready bool
}

func (m *MockGenerativeModel) Ready() bool {
	return m.ready
}

func (m *MockGenerativeModel) Generate(ctx context.Context, prompt string, image *ImageInput, opts GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, image, opts)
	return args.String(0), args.Error(1)
}

func (m *MockGenerativeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	values, _ := args.Get(0).([]float32)
	return values, args.Error(1)
}

func intPtr(v int) *int {
	return &v
}
