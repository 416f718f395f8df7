package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/memorylane/recall-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	streakWindow   = 20
	exportTimeForm = "2006-01-02 15:04:05"
	resultsSheet   = "Results"
)

type InsightsService interface {
	GetPatientInsights(ctx context.Context, caregiverSub, patientID string) (*models.PatientInsights, error)
	// ExportResults writes one spreadsheet row per finalized quiz.
	ExportResults(ctx context.Context, caregiverSub string, req *models.ExportRequest) ([]byte, error)
}

type insightsService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewInsightsService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) InsightsService {
	return &insightsService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *insightsService) ownedPatient(ctx context.Context, caregiverSub, patientID string) (*models.Patient, error) {
	patient, err := s.repo.Patient().GetByID(ctx, nil, patientID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.CaregiverSub != caregiverSub {
		return nil, NewPermissionError(ErrPatientAccessDenied, caregiverSub, patientID, "patient", "view_insights", "not owned by caregiver")
	}
	return patient, nil
}

func (s *insightsService) GetPatientInsights(ctx context.Context, caregiverSub, patientID string) (*models.PatientInsights, error) {
	if patientID == "" {
		return nil, ErrPatientIDRequired
	}
	patient, err := s.ownedPatient(ctx, caregiverSub, patientID)
	if err != nil {
		return nil, err
	}

	results, total, err := s.repo.QuizResult().List(ctx, nil, repositories.ResultFilters{
		PatientID:    patientID,
		CaregiverSub: caregiverSub,
		Limit:        streakWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	insights := &models.PatientInsights{
		PatientID:         patient.ID,
		DisplayName:       patient.DisplayName,
		WrongResponses:    []models.WrongResponse{},
		CompletedQuizzes:  total,
		NextReviewMinutes: NextInterval(0, false),
	}
	if len(results) == 0 {
		return insights, nil
	}

	latest := results[0]
	insights.LatestResult = latest
	insights.WrongResponses = WrongResponses(latest)
	insights.CorrectStreak = CorrectStreak(results)
	insights.NextReviewMinutes = NextInterval(insights.CorrectStreak, latest.ScorePercent >= ReviewPassPercent)

	return insights, nil
}

// WrongResponses lists the answered questions the patient got wrong.
func WrongResponses(result *models.QuizResult) []models.WrongResponse {
	wrong := []models.WrongResponse{}
	for _, row := range result.Responses {
		if row.ChosenIndex == nil || row.Correct {
			continue
		}
		wrong = append(wrong, models.WrongResponse{
			QuestionID:    row.QuestionID,
			Prompt:        row.Prompt,
			CorrectAnswer: optionAt(row.Options, row.CorrectIndex),
			ChosenAnswer:  optionAt(row.Options, *row.ChosenIndex),
			ImageDataURL:  row.ImageDataURL,
			Context:       row.Context,
			AnsweredAt:    row.AnsweredAt,
		})
	}
	return wrong
}

func optionAt(options []string, i int) string {
	if i < 0 || i >= len(options) {
		return ""
	}
	return options[i]
}

func (s *insightsService) ExportResults(ctx context.Context, caregiverSub string, req *models.ExportRequest) ([]byte, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	patient, err := s.ownedPatient(ctx, caregiverSub, req.PatientID)
	if err != nil {
		return nil, err
	}

	results, _, err := s.repo.QuizResult().List(ctx, nil, repositories.ResultFilters{
		PatientID:    patient.ID,
		CaregiverSub: caregiverSub,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Session ID", "Patient", "Completed At", "Questions", "Answered",
		"Correct", "Score (%)", "Missed Prompts",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for rowIndex, result := range results {
		missed := ""
		for _, w := range WrongResponses(result) {
			if missed != "" {
				missed += "; "
			}
			missed += w.Prompt
		}

		row := []interface{}{
			result.SessionID,
			patient.DisplayName,
			result.CompletedAt.UTC().Format(exportTimeForm),
			result.TotalQuestions,
			result.AnsweredCount,
			result.CorrectCount,
			result.ScorePercent,
			missed,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIndex+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write Excel row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported quiz results",
		"patient_id", patient.ID,
		"rows", len(results),
		"generated_at", time.Now().UTC())

	return buf.Bytes(), nil
}
