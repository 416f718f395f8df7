package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// GenerateQuiz builds and stores a new quiz session
// @Summary Generate quiz
// @Description Builds one multiple-choice question per memory and returns the full session
// @Tags quiz
// @Accept json
// @Produce json
// @Param body body services.GenerateQuizRequest true "Patient and memories"
// @Success 200 {object} models.QuizSession
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/quiz/generate [post]
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	var req services.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Generating quiz", "patient_id", req.PatientID)

	session, err := h.quizService.Generate(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// AnswerQuestion records one answer and returns immediate feedback
// @Summary Answer quiz question
// @Tags quiz
// @Accept json
// @Produce json
// @Param body body services.AnswerRequest true "Answer"
// @Success 200 {object} services.AnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/quiz/answer [post]
func (h *QuizHandler) AnswerQuestion(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing or invalid fields", err, err.Error())
		return
	}

	resp, err := h.quizService.Answer(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get quiz session
// @Tags quiz
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.QuizSession
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/quiz/sessions/{id} [get]
func (h *QuizHandler) GetSession(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.quizService.GetSession(c.Request.Context(), identity, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary Get quiz result
// @Tags quiz
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.QuizResult
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/quiz/sessions/{id}/result [get]
func (h *QuizHandler) GetResult(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	result, err := h.quizService.GetResult(c.Request.Context(), identity, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
