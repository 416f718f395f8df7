package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memorylane/recall-service/internal/events"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
)

const (
	defaultQuizSize = 4
	maxQuizSize     = 10
)

type QuizService interface {
	Generate(ctx context.Context, caller *models.Identity, req *GenerateQuizRequest) (*models.QuizSession, error)
	Answer(ctx context.Context, caller *models.Identity, req *AnswerRequest) (*AnswerResponse, error)
	GetSession(ctx context.Context, caller *models.Identity, sessionID string) (*models.QuizSession, error)
	GetResult(ctx context.Context, caller *models.Identity, sessionID string) (*models.QuizResult, error)

	// Finalize scores a fully answered session; it returns nil when questions remain unanswered.
	Finalize(ctx context.Context, sessionID string) (*models.QuizResult, error)
}

type GenerateQuizRequest struct {
	PatientID string   `json:"patientId"`
	MemoryIDs []string `json:"memoryIds"`
	Limit     *int     `json:"limit"`
}

type AnswerRequest struct {
	SessionID   string `json:"sessionId"`
	QuestionID  string `json:"questionId"`
	ChosenIndex *int   `json:"chosenIndex"`
}

type AnswerResponse struct {
	Correct    bool   `json:"correct"`
	Supportive string `json:"supportive"`
}

type quizService struct {
	repo      repositories.Repository
	captions  CaptionService
	model     GenerativeModel
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
	now       func() time.Time
}

func NewQuizService(
	repo repositories.Repository,
	captions CaptionService,
	model GenerativeModel,
	publisher events.EventPublisher,
	logger *slog.Logger,
) QuizService {
	return &quizService{
		repo:      repo,
		captions:  captions,
		model:     model,
		publisher: publisher,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, "quiz"),
		now:       time.Now,
	}
}

// ===== GENERATION =====

func (s *quizService) Generate(ctx context.Context, caller *models.Identity, req *GenerateQuizRequest) (session *models.QuizSession, err error) {
	start := time.Now()
	patientID := strings.TrimSpace(req.PatientID)
	defer func() {
		s.opLogger.LogOperation(ctx, "generate_quiz", caller.Sub, patientID, "patient", time.Since(start), err)
	}()

	if patientID == "" {
		return nil, ErrPatientIDRequired
	}

	s.logger.Info("Generating quiz",
		"patient_id", patientID,
		"user_sub", caller.Sub,
		"role", caller.Role,
		"requested_memories", len(req.MemoryIDs))

	caregiverSub, err := s.resolveCaregiver(ctx, caller, patientID)
	if err != nil {
		return nil, err
	}

	memories, err := s.selectMemories(ctx, caregiverSub, patientID, req)
	if err != nil {
		return nil, err
	}

	if !s.model.Ready() {
		return nil, ErrModelNotConfigured
	}

	questions := make([]models.Question, 0, len(memories))
	for _, memory := range memories {
		question, err := s.buildQuestion(ctx, memory)
		if err != nil {
			s.logger.Warn("Skipping memory, question generation failed",
				"memory_id", memory.ID,
				"error", err)
			continue
		}
		questions = append(questions, *question)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionsGenerated
	}

	memoryIDs := make([]string, len(questions))
	for i, q := range questions {
		memoryIDs[i] = q.MemoryID
	}

	session = &models.QuizSession{
		ID:           uuid.NewString(),
		CreatedBySub: caller.Sub,
		CaregiverSub: caregiverSub,
		PatientID:    patientID,
		MemoryIDs:    memoryIDs,
		Questions:    questions,
		Status:       models.QuizStatusActive,
		CreatedAt:    s.now().UTC(),
		History:      []models.AnswerEvent{},
	}
	if err := s.repo.QuizSession().Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("failed to create quiz session: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.EventQuizGenerated, events.QuizGeneratedEvent{
		SessionID:     session.ID,
		PatientID:     patientID,
		CaregiverSub:  caregiverSub,
		CreatedBySub:  caller.Sub,
		MemoryIDs:     memoryIDs,
		QuestionCount: len(questions),
	}))

	s.logger.Info("Quiz generated",
		"session_id", session.ID,
		"questions", len(questions),
		"memories_considered", len(memories))

	return session, nil
}

// resolveCaregiver checks the caller may quiz the patient and returns the owning caregiver.
func (s *quizService) resolveCaregiver(ctx context.Context, caller *models.Identity, patientID string) (string, error) {
	patient, err := s.repo.Patient().GetByID(ctx, nil, patientID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrPatientNotFound
		}
		return "", fmt.Errorf("failed to get patient: %w", err)
	}

	switch caller.Role {
	case models.RoleCaregiver:
		if patient.CaregiverSub != caller.Sub {
			return "", NewPermissionError(ErrPatientAccessDenied, caller.Sub, patientID, "patient", "quiz", "not owned by caregiver")
		}
		return caller.Sub, nil
	case models.RolePatient:
		if !patient.IsLinkedTo(caller.Sub) {
			return "", NewPermissionError(ErrPatientAccessDenied, caller.Sub, patientID, "patient", "quiz", "not linked to this account")
		}
		return patient.CaregiverSub, nil
	default:
		return "", ErrRoleNotAllowed
	}
}

// selectMemories resolves the requested or newest memory ids and keeps only those owned by the pair.
func (s *quizService) selectMemories(ctx context.Context, caregiverSub, patientID string, req *GenerateQuizRequest) ([]*models.Memory, error) {
	ids := uniqueIDs(req.MemoryIDs)

	if len(ids) == 0 {
		limit := defaultQuizSize
		if req.Limit != nil && *req.Limit != 0 {
			limit = clamp(*req.Limit, 1, maxQuizSize)
		}
		recent, err := s.repo.Memory().List(ctx, nil, repositories.MemoryFilters{
			CaregiverSub: caregiverSub,
			PatientID:    patientID,
			Limit:        limit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list memories: %w", err)
		}
		for _, m := range recent {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoMemoriesFound
	}

	found, err := s.repo.Memory().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}
	byID := make(map[string]*models.Memory, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	memories := make([]*models.Memory, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok || !m.IsOwnedBy(caregiverSub, patientID) {
			s.logger.Debug("Dropping inaccessible memory", "memory_id", id)
			continue
		}
		memories = append(memories, m)
	}
	if len(memories) == 0 {
		return nil, ErrNoAccessibleMemories
	}
	return memories, nil
}

func (s *quizService) buildQuestion(ctx context.Context, memory *models.Memory) (*models.Question, error) {
	caption := s.captions.EnsureCaption(ctx, memory)

	image, err := ParseDataURL(memory.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("memory image: %w", err)
	}

	out, err := s.model.Generate(ctx, buildQuestionPrompt(memory, caption), image, GenerateOptions{
		Temperature:     0.3,
		MaxOutputTokens: 300,
		JSON:            true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := ParseModelQuestion(out)
	if err != nil {
		s.logger.Debug("Rejected model question", "memory_id", memory.ID, "output", SanitizeForLogging(out))
		return nil, err
	}

	hint := parsed.Hint
	if IsDeflectionHint(hint) {
		hint = FallbackHint(deref(memory.PersonName), deref(memory.EventName), deref(memory.PlaceName))
	}

	return &models.Question{
		ID:           uuid.NewString(),
		MemoryID:     memory.ID,
		Prompt:       parsed.Question,
		Options:      parsed.Options,
		CorrectIndex: parsed.CorrectIndex,
		Hint:         hint,
		Context:      questionContext(memory, caption),
		ImageDataURL: memory.ImageURL,
	}, nil
}

// ===== ANSWERS =====

func (s *quizService) Answer(ctx context.Context, caller *models.Identity, req *AnswerRequest) (*AnswerResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	questionID := strings.TrimSpace(req.QuestionID)
	if sessionID == "" || questionID == "" || req.ChosenIndex == nil {
		return nil, ErrBadRequest
	}

	session, err := s.repo.QuizSession().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get quiz session: %w", err)
	}
	if err := s.checkSessionAccess(ctx, caller, session); err != nil {
		return nil, err
	}

	question, ok := session.FindQuestion(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}

	chosen := *req.ChosenIndex
	correct := chosen == question.CorrectIndex

	event := &models.AnswerEvent{
		SessionID:    sessionID,
		QuestionID:   questionID,
		ChosenIndex:  chosen,
		CorrectIndex: question.CorrectIndex,
		Correct:      correct,
		AnsweredAt:   s.now().UTC(),
	}
	if err := s.repo.QuizSession().AppendAnswer(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	s.logger.Info("Answer recorded",
		"session_id", sessionID,
		"question_id", questionID,
		"correct", correct,
		"user_sub", caller.Sub)

	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.EventQuizAnswered, events.QuizAnsweredEvent{
		SessionID:   sessionID,
		QuestionID:  questionID,
		MemoryID:    question.MemoryID,
		ChosenIndex: chosen,
		Correct:     correct,
	}))

	if !correct {
		s.prioritizeMemory(ctx, session, question.MemoryID)
	}

	if _, err := s.Finalize(ctx, sessionID); err != nil {
		s.logger.Error("Quiz finalization failed", "session_id", sessionID, "error", err)
	}

	return &AnswerResponse{
		Correct:    correct,
		Supportive: supportiveFeedback(question, correct),
	}, nil
}

func (s *quizService) prioritizeMemory(ctx context.Context, session *models.QuizSession, memoryID string) {
	if err := s.repo.Memory().MarkPrioritized(ctx, nil, memoryID); err != nil {
		s.logger.Warn("Failed to prioritize memory", "memory_id", memoryID, "error", err)
		return
	}
	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.EventMemoryPrioritized, events.MemoryPrioritizedEvent{
		MemoryID:  memoryID,
		PatientID: session.PatientID,
		SessionID: session.ID,
	}))
}

func (s *quizService) GetSession(ctx context.Context, caller *models.Identity, sessionID string) (*models.QuizSession, error) {
	session, err := s.repo.QuizSession().GetByIDWithHistory(ctx, nil, strings.TrimSpace(sessionID))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get quiz session: %w", err)
	}
	if err := s.checkSessionAccess(ctx, caller, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *quizService) GetResult(ctx context.Context, caller *models.Identity, sessionID string) (*models.QuizResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	session, err := s.repo.QuizSession().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get quiz session: %w", err)
	}
	if err := s.checkSessionAccess(ctx, caller, session); err != nil {
		return nil, err
	}

	result, err := s.repo.QuizResult().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get quiz result: %w", err)
	}
	return result, nil
}

func (s *quizService) checkSessionAccess(ctx context.Context, caller *models.Identity, session *models.QuizSession) error {
	switch caller.Role {
	case models.RoleCaregiver:
		if session.CaregiverSub == caller.Sub {
			return nil
		}
	case models.RolePatient:
		patient, err := s.repo.Patient().GetByID(ctx, nil, session.PatientID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if patient != nil && patient.IsLinkedTo(caller.Sub) {
			return nil
		}
	}
	return NewPermissionError(ErrSessionAccessDenied, caller.Sub, session.ID, "quiz_session", "access", "not a participant")
}

// ===== FINALIZATION =====

func (s *quizService) Finalize(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	session, err := s.repo.QuizSession().GetByIDWithHistory(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to reload quiz session: %w", err)
	}

	completedAt := s.now().UTC()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	result := ComputeResult(session, completedAt)
	if result.AnsweredCount < result.TotalQuestions {
		return nil, nil
	}

	if err := s.repo.QuizResult().Upsert(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to save quiz result: %w", err)
	}

	if session.Status != models.QuizStatusCompleted {
		flipped, err := s.repo.QuizSession().MarkCompleted(ctx, nil, sessionID, completedAt)
		if err != nil {
			return result, fmt.Errorf("failed to complete quiz session: %w", err)
		}
		if flipped {
			s.logger.Info("Quiz completed",
				"session_id", sessionID,
				"score_percent", result.ScorePercent,
				"correct", result.CorrectCount,
				"total", result.TotalQuestions)

			publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.EventQuizCompleted, events.QuizCompletedEvent{
				SessionID:      sessionID,
				PatientID:      session.PatientID,
				CaregiverSub:   session.CaregiverSub,
				TotalQuestions: result.TotalQuestions,
				CorrectCount:   result.CorrectCount,
				ScorePercent:   result.ScorePercent,
				CompletedAt:    completedAt,
			}))
		}
	}

	return result, nil
}

// LatestAnswers keeps, per question, the most recent event of the history.
func LatestAnswers(history []models.AnswerEvent) map[string]models.AnswerEvent {
	latest := make(map[string]models.AnswerEvent, len(history))
	for _, event := range history {
		current, ok := latest[event.QuestionID]
		if !ok || event.After(current) {
			latest[event.QuestionID] = event
		}
	}
	return latest
}

// ComputeResult aggregates the session history into a result document.
func ComputeResult(session *models.QuizSession, completedAt time.Time) *models.QuizResult {
	latest := LatestAnswers(session.History)

	rows := make([]models.ResponseRow, 0, len(session.Questions))
	answered, correct := 0, 0
	for _, q := range session.Questions {
		row := models.ResponseRow{
			QuestionID:   q.ID,
			MemoryID:     q.MemoryID,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Hint:         q.Hint,
			Context:      q.Context,
			ImageDataURL: q.ImageDataURL,
		}
		if event, ok := latest[q.ID]; ok {
			chosen := event.ChosenIndex
			answeredAt := event.AnsweredAt
			row.ChosenIndex = &chosen
			row.AnsweredAt = &answeredAt
			row.Correct = event.Correct
			answered++
			if event.Correct {
				correct++
			}
		}
		rows = append(rows, row)
	}

	return &models.QuizResult{
		ID:             session.ID,
		SessionID:      session.ID,
		PatientID:      session.PatientID,
		CaregiverSub:   session.CaregiverSub,
		CreatedBySub:   session.CreatedBySub,
		TotalQuestions: len(session.Questions),
		AnsweredCount:  answered,
		CorrectCount:   correct,
		ScorePercent:   ScorePercent(correct, len(session.Questions)),
		Responses:      rows,
		CreatedAt:      session.CreatedAt,
		CompletedAt:    completedAt,
	}
}

func ScorePercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
