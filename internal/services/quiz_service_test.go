package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/memorylane/recall-service/internal/events"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type quizFixture struct {
	repo      *MockRepository
	model     *MockGenerativeModel
	publisher *events.MockEventPublisher
	service   *quizService
}

func newQuizFixture() *quizFixture {
	repo := newMockRepository()
	model := &MockGenerativeModel{ready: true}
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)

	svc := NewQuizService(repo, NewCaptionService(repo, model, logger), model, publisher, logger).(*quizService)
	svc.now = func() time.Time { return fixedNow }

	return &quizFixture{repo: repo, model: model, publisher: publisher, service: svc}
}

func caregiver(sub string) *models.Identity {
	return &models.Identity{Sub: sub, Role: models.RoleCaregiver}
}

func captionedMemory(id, title string) *models.Memory {
	return &models.Memory{
		ID:           id,
		CaregiverSub: "cg-1",
		PatientID:    "pt-1",
		Title:        title,
		ImageURL:     testImage,
		PersonName:   stringPtr("Ann Lee"),
		CaptionAI:    stringPtr(title + " with Ann Lee"),
	}
}

func threeQuestionSession() *models.QuizSession {
	q := func(id, memoryID string) models.Question {
		return models.Question{
			ID:           id,
			MemoryID:     memoryID,
			Prompt:       "Who is this?",
			Options:      []string{"Ann", "Bob", "Cid", "Dee"},
			CorrectIndex: 0,
			Hint:         "Their initials are A.",
		}
	}
	return &models.QuizSession{
		ID:           "sess-1",
		CreatedBySub: "cg-1",
		CaregiverSub: "cg-1",
		PatientID:    "pt-1",
		Questions:    []models.Question{q("q1", "m1"), q("q2", "m2"), q("q3", "m3")},
		Status:       models.QuizStatusActive,
		CreatedAt:    fixedNow.Add(-time.Hour),
	}
}

func answer(id uint, questionID string, chosen int, at time.Time) models.AnswerEvent {
	return models.AnswerEvent{
		ID:           id,
		SessionID:    "sess-1",
		QuestionID:   questionID,
		ChosenIndex:  chosen,
		CorrectIndex: 0,
		Correct:      chosen == 0,
		AnsweredAt:   at,
	}
}

// ===== GENERATION =====

func TestQuizService_Generate_RequiresPatientID(t *testing.T) {
	f := newQuizFixture()

	_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{PatientID: "   "})

	assert.ErrorIs(t, err, ErrPatientIDRequired)
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, "patientId required", err.Error())
}

func TestQuizService_Generate_PatientAccess(t *testing.T) {
	t.Run("unknown patient", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-x").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{PatientID: "pt-x"})

		assert.ErrorIs(t, err, ErrPatientNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("caregiver does not own patient", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
			Return(&models.Patient{ID: "pt-1", CaregiverSub: "someone-else"}, nil)

		_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{PatientID: "pt-1"})

		assert.ErrorIs(t, err, ErrPatientAccessDenied)
		assert.True(t, IsForbidden(err))
	})

	t.Run("patient not linked to record", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
			Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1", PatientSub: stringPtr("pat-2")}, nil)

		caller := &models.Identity{Sub: "pat-1", Role: models.RolePatient}
		_, err := f.service.Generate(context.Background(), caller, &GenerateQuizRequest{PatientID: "pt-1"})

		assert.True(t, IsForbidden(err))
	})
}

func TestQuizService_Generate_NoAccessibleMemories(t *testing.T) {
	f := newQuizFixture()
	f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
		Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1"}, nil)

	foreign := captionedMemory("m9", "Not yours")
	foreign.CaregiverSub = "cg-2"
	f.repo.memories.On("GetByIDs", mock.Anything, (*gorm.DB)(nil), []string{"m9", "missing"}).
		Return([]*models.Memory{foreign}, nil)

	_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{
		PatientID: "pt-1",
		MemoryIDs: []string{"m9", "missing", "m9"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAccessibleMemories)
	assert.Equal(t, "No accessible memories", err.Error())
	f.repo.AssertExpectations(t)
}

func TestQuizService_Generate_ModelNotConfigured(t *testing.T) {
	f := newQuizFixture()
	f.model.ready = false
	f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
		Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1"}, nil)
	f.repo.memories.On("GetByIDs", mock.Anything, (*gorm.DB)(nil), []string{"m1"}).
		Return([]*models.Memory{captionedMemory("m1", "Beach")}, nil)

	_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{
		PatientID: "pt-1",
		MemoryIDs: []string{"m1"},
	})

	assert.ErrorIs(t, err, ErrModelNotConfigured)
	assert.True(t, IsMisconfigured(err))
}

func TestQuizService_Generate_SkipsFailedMemories(t *testing.T) {
	f := newQuizFixture()
	f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
		Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1"}, nil)

	limit := 25
	f.repo.memories.On("List", mock.Anything, (*gorm.DB)(nil), repositories.MemoryFilters{
		CaregiverSub: "cg-1",
		PatientID:    "pt-1",
		Limit:        maxQuizSize,
	}).Return([]*models.Memory{{ID: "m1"}, {ID: "m2"}}, nil)
	f.repo.memories.On("GetByIDs", mock.Anything, (*gorm.DB)(nil), []string{"m1", "m2"}).
		Return([]*models.Memory{captionedMemory("m2", "Garden"), captionedMemory("m1", "Beach")}, nil)

	isPromptFor := func(title string) interface{} {
		return mock.MatchedBy(func(p string) bool { return strings.Contains(p, "- Title: "+title) })
	}
	f.model.On("Generate", mock.Anything, isPromptFor("Beach"), mock.AnythingOfType("*services.ImageInput"), mock.Anything).
		Return("```json\n{\"question\":\"Who is at the beach?\",\"options\":[\"Ann Lee\",\"Bob\",\"Cid\",\"Dee\"],\"correctIndex\":0,\"hint\":\"Look at the caption\"}\n```", nil)
	f.model.On("Generate", mock.Anything, isPromptFor("Garden"), mock.AnythingOfType("*services.ImageInput"), mock.Anything).
		Return("", errors.New("quota exceeded"))

	var created *models.QuizSession
	f.repo.sessions.On("Create", mock.Anything, (*gorm.DB)(nil), mock.AnythingOfType("*models.QuizSession")).
		Run(func(args mock.Arguments) { created = args.Get(2).(*models.QuizSession) }).
		Return(nil)

	session, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{
		PatientID: "pt-1",
		Limit:     &limit,
	})

	require.NoError(t, err)
	require.Same(t, created, session)
	assert.Equal(t, models.QuizStatusActive, session.Status)
	assert.Empty(t, session.History)
	assert.Equal(t, "cg-1", session.CaregiverSub)
	require.Len(t, session.Questions, 1)

	q := session.Questions[0]
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "m1", q.MemoryID)
	assert.Equal(t, 0, q.CorrectIndex)
	assert.Equal(t, "Their initials are AL.", q.Hint, "deflection hint must be replaced")
	assert.Equal(t, testImage, q.ImageDataURL)
	assert.Equal(t, "Beach with Ann Lee", deref(q.Context.CaptionAI))
	assert.Equal(t, []string{"m1"}, []string(session.MemoryIDs))

	assert.Len(t, f.publisher.EventsOfType(events.EventQuizGenerated), 1)
	f.repo.AssertExpectations(t)
}

func TestQuizService_Generate_SkipsShortOptionLists(t *testing.T) {
	f := newQuizFixture()
	f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
		Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1"}, nil)
	f.repo.memories.On("GetByIDs", mock.Anything, (*gorm.DB)(nil), []string{"m1", "m2", "m3"}).
		Return([]*models.Memory{captionedMemory("m1", "Beach"), captionedMemory("m2", "Garden"), captionedMemory("m3", "Porch")}, nil)

	isPromptFor := func(title string) interface{} {
		return mock.MatchedBy(func(p string) bool { return strings.Contains(p, "- Title: "+title) })
	}
	f.model.On("Generate", mock.Anything, isPromptFor("Beach"), mock.Anything, mock.Anything).
		Return(`{"question":"Who?","options":["Ann","Bob"],"correctIndex":3,"hint":"h"}`, nil)
	f.model.On("Generate", mock.Anything, isPromptFor("Garden"), mock.Anything, mock.Anything).
		Return(`{"question":"Who?","options":[],"correctIndex":0,"hint":"h"}`, nil)
	f.model.On("Generate", mock.Anything, isPromptFor("Porch"), mock.Anything, mock.Anything).
		Return(`{"question":"Where?","options":["Maine","Ohio","Iowa","Utah"],"correctIndex":2,"hint":"h"}`, nil)
	f.repo.sessions.On("Create", mock.Anything, (*gorm.DB)(nil), mock.AnythingOfType("*models.QuizSession")).
		Return(nil)

	session, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{
		PatientID: "pt-1",
		MemoryIDs: []string{"m1", "m2", "m3"},
	})

	require.NoError(t, err)
	require.Len(t, session.Questions, 1)
	q := session.Questions[0]
	assert.Equal(t, "m3", q.MemoryID)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, 2, q.CorrectIndex)
}

func TestQuizService_Generate_AllMemoriesFail(t *testing.T) {
	f := newQuizFixture()
	f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
		Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1"}, nil)
	f.repo.memories.On("GetByIDs", mock.Anything, (*gorm.DB)(nil), []string{"m1"}).
		Return([]*models.Memory{captionedMemory("m1", "Beach")}, nil)
	f.model.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"question":"no options here"}`, nil)

	_, err := f.service.Generate(context.Background(), caregiver("cg-1"), &GenerateQuizRequest{
		PatientID: "pt-1",
		MemoryIDs: []string{"m1"},
	})

	assert.ErrorIs(t, err, ErrNoQuestionsGenerated)
	f.repo.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// ===== ANSWERS =====

func TestQuizService_Answer_Validation(t *testing.T) {
	f := newQuizFixture()
	idx := 1

	for _, req := range []*AnswerRequest{
		{QuestionID: "q1", ChosenIndex: &idx},
		{SessionID: "sess-1", ChosenIndex: &idx},
		{SessionID: "sess-1", QuestionID: "q1"},
	} {
		_, err := f.service.Answer(context.Background(), caregiver("cg-1"), req)
		assert.ErrorIs(t, err, ErrBadRequest)
	}
}

func TestQuizService_Answer_NotFound(t *testing.T) {
	f := newQuizFixture()
	idx := 0
	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "nope").Return(nil, gorm.ErrRecordNotFound)
	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)

	_, err := f.service.Answer(context.Background(), caregiver("cg-1"), &AnswerRequest{SessionID: "nope", QuestionID: "q1", ChosenIndex: &idx})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.service.Answer(context.Background(), caregiver("cg-1"), &AnswerRequest{SessionID: "sess-1", QuestionID: "q9", ChosenIndex: &idx})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuizService_Answer_FinalQuestionCompletesSession(t *testing.T) {
	f := newQuizFixture()
	idx := 0

	before := threeQuestionSession()
	before.History = []models.AnswerEvent{
		answer(1, "q1", 0, fixedNow.Add(-3*time.Minute)),
		answer(2, "q2", 2, fixedNow.Add(-2*time.Minute)),
	}
	after := threeQuestionSession()
	after.History = append(append([]models.AnswerEvent{}, before.History...), answer(3, "q3", 0, fixedNow))

	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(before, nil)
	f.repo.sessions.On("AppendAnswer", mock.Anything, (*gorm.DB)(nil), mock.MatchedBy(func(e *models.AnswerEvent) bool {
		return e.SessionID == "sess-1" && e.QuestionID == "q3" && e.Correct && e.AnsweredAt.Equal(fixedNow)
	})).Return(nil)
	f.repo.sessions.On("GetByIDWithHistory", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(after, nil)
	f.repo.results.On("Upsert", mock.Anything, (*gorm.DB)(nil), mock.MatchedBy(func(r *models.QuizResult) bool {
		return r.ID == "sess-1" && r.TotalQuestions == 3 && r.AnsweredCount == 3 && r.CorrectCount == 2 && r.ScorePercent == 67
	})).Return(nil)
	f.repo.sessions.On("MarkCompleted", mock.Anything, (*gorm.DB)(nil), "sess-1", fixedNow).Return(true, nil)

	resp, err := f.service.Answer(context.Background(), caregiver("cg-1"), &AnswerRequest{
		SessionID:   "sess-1",
		QuestionID:  "q3",
		ChosenIndex: &idx,
	})

	require.NoError(t, err)
	assert.True(t, resp.Correct)
	assert.Equal(t, "Great job! Correct answer.", resp.Supportive)
	assert.Len(t, f.publisher.EventsOfType(events.EventQuizCompleted), 1)
	f.repo.AssertExpectations(t)
}

func TestQuizService_Answer_WrongAnswerPrioritizesMemory(t *testing.T) {
	f := newQuizFixture()
	idx := 3

	session := threeQuestionSession()
	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(session, nil)
	f.repo.sessions.On("AppendAnswer", mock.Anything, (*gorm.DB)(nil), mock.AnythingOfType("*models.AnswerEvent")).Return(nil)
	f.repo.memories.On("MarkPrioritized", mock.Anything, (*gorm.DB)(nil), "m2").Return(nil)

	partial := threeQuestionSession()
	partial.History = []models.AnswerEvent{answer(1, "q2", 3, fixedNow)}
	f.repo.sessions.On("GetByIDWithHistory", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(partial, nil)

	resp, err := f.service.Answer(context.Background(), caregiver("cg-1"), &AnswerRequest{
		SessionID:   "sess-1",
		QuestionID:  "q2",
		ChosenIndex: &idx,
	})

	require.NoError(t, err)
	assert.False(t, resp.Correct)
	assert.Equal(t, `Good try! The correct answer is "Ann".`, resp.Supportive)
	assert.Len(t, f.publisher.EventsOfType(events.EventMemoryPrioritized), 1)
	f.repo.results.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestQuizService_Answer_FinalizeFailureIsNotSurfaced(t *testing.T) {
	f := newQuizFixture()
	idx := 0

	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)
	f.repo.sessions.On("AppendAnswer", mock.Anything, (*gorm.DB)(nil), mock.AnythingOfType("*models.AnswerEvent")).Return(nil)
	f.repo.sessions.On("GetByIDWithHistory", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(nil, errors.New("connection reset"))

	resp, err := f.service.Answer(context.Background(), caregiver("cg-1"), &AnswerRequest{
		SessionID:   "sess-1",
		QuestionID:  "q1",
		ChosenIndex: &idx,
	})

	require.NoError(t, err)
	assert.True(t, resp.Correct)
}

func TestQuizService_Answer_RejectsOtherCaregiver(t *testing.T) {
	f := newQuizFixture()
	idx := 0
	f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)

	_, err := f.service.Answer(context.Background(), caregiver("cg-2"), &AnswerRequest{
		SessionID:   "sess-1",
		QuestionID:  "q1",
		ChosenIndex: &idx,
	})

	assert.ErrorIs(t, err, ErrSessionAccessDenied)
	f.repo.sessions.AssertNotCalled(t, "AppendAnswer", mock.Anything, mock.Anything, mock.Anything)
}

// ===== FINALIZATION =====

func TestQuizService_Finalize_AlreadyCompletedKeepsTimestamp(t *testing.T) {
	f := newQuizFixture()
	completedAt := fixedNow.Add(-time.Minute)

	session := threeQuestionSession()
	session.Status = models.QuizStatusCompleted
	session.CompletedAt = &completedAt
	session.History = []models.AnswerEvent{
		answer(1, "q1", 0, fixedNow.Add(-3*time.Minute)),
		answer(2, "q2", 0, fixedNow.Add(-2*time.Minute)),
		answer(3, "q3", 0, fixedNow.Add(-time.Minute)),
	}
	f.repo.sessions.On("GetByIDWithHistory", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(session, nil)
	f.repo.results.On("Upsert", mock.Anything, (*gorm.DB)(nil), mock.AnythingOfType("*models.QuizResult")).Return(nil)

	result, err := f.service.Finalize(context.Background(), "sess-1")

	require.NoError(t, err)
	assert.Equal(t, 100, result.ScorePercent)
	assert.Equal(t, completedAt, result.CompletedAt)
	f.repo.sessions.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.EventsOfType(events.EventQuizCompleted))
}

func TestComputeResult_LatestAnswerWins(t *testing.T) {
	session := threeQuestionSession()
	session.History = []models.AnswerEvent{
		answer(1, "q1", 2, fixedNow.Add(-5*time.Minute)),
		answer(2, "q1", 0, fixedNow.Add(-4*time.Minute)),
		answer(3, "q2", 0, fixedNow.Add(-3*time.Minute)),
		// same timestamp: the later insert wins
		answer(5, "q2", 1, fixedNow.Add(-3*time.Minute)),
	}

	result := ComputeResult(session, fixedNow)

	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 2, result.AnsweredCount)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 33, result.ScorePercent)

	require.Len(t, result.Responses, 3)
	assert.Equal(t, 0, *result.Responses[0].ChosenIndex)
	assert.True(t, result.Responses[0].Correct)
	assert.Equal(t, 1, *result.Responses[1].ChosenIndex)
	assert.False(t, result.Responses[1].Correct)
	assert.Nil(t, result.Responses[2].ChosenIndex)
	assert.Nil(t, result.Responses[2].AnsweredAt)

	nulls := 0
	for _, row := range result.Responses {
		if row.ChosenIndex == nil {
			nulls++
		}
	}
	assert.Equal(t, result.TotalQuestions, result.AnsweredCount+nulls)
}

func TestComputeResult_Idempotent(t *testing.T) {
	session := threeQuestionSession()
	session.History = []models.AnswerEvent{
		answer(1, "q1", 0, fixedNow),
		answer(2, "q2", 1, fixedNow),
		answer(3, "q3", 0, fixedNow),
	}

	first := ComputeResult(session, fixedNow)
	second := ComputeResult(session, fixedNow)

	assert.Equal(t, first, second)
	assert.Equal(t, 67, first.ScorePercent)
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 0, ScorePercent(0, 0))
	assert.Equal(t, 0, ScorePercent(0, 4))
	assert.Equal(t, 50, ScorePercent(1, 2))
	assert.Equal(t, 33, ScorePercent(1, 3))
	assert.Equal(t, 67, ScorePercent(2, 3))
	assert.Equal(t, 100, ScorePercent(4, 4))
	assert.Equal(t, 13, ScorePercent(1, 8))
}

// ===== RESULTS =====

func TestQuizService_GetResult(t *testing.T) {
	t.Run("linked patient reads the result", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)
		f.repo.patients.On("GetByID", mock.Anything, (*gorm.DB)(nil), "pt-1").
			Return(&models.Patient{ID: "pt-1", CaregiverSub: "cg-1", PatientSub: stringPtr("pt-sub")}, nil)
		stored := &models.QuizResult{ID: "sess-1", SessionID: "sess-1", ScorePercent: 67}
		f.repo.results.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(stored, nil)

		result, err := f.service.GetResult(context.Background(), &models.Identity{Sub: "pt-sub", Role: models.RolePatient}, " sess-1 ")

		require.NoError(t, err)
		assert.Same(t, stored, result)
	})

	t.Run("unfinished session has no result", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)
		f.repo.results.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.GetResult(context.Background(), caregiver("cg-1"), "sess-1")

		assert.ErrorIs(t, err, ErrResultNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("other caregiver is denied", func(t *testing.T) {
		f := newQuizFixture()
		f.repo.sessions.On("GetByID", mock.Anything, (*gorm.DB)(nil), "sess-1").Return(threeQuestionSession(), nil)

		_, err := f.service.GetResult(context.Background(), caregiver("cg-9"), "sess-1")

		assert.ErrorIs(t, err, ErrSessionAccessDenied)
		f.repo.results.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})
}
