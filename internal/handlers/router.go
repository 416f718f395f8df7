package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/config"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

const serviceName = "recall-service"

type HandlerManager struct {
	auth            *AuthMiddleware
	ttsLimiter      *ClientRateLimiter
	authHandler     *AuthHandler
	patientHandler  *PatientHandler
	memoryHandler   *MemoryHandler
	captionHandler  *CaptionHandler
	quizHandler     *QuizHandler
	speechHandler   *SpeechHandler
	insightsHandler *InsightsHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	cfg *config.Config,
	logger utils.Logger,
) *HandlerManager {
	secureCookie := cfg.Environment == "production"
	return &HandlerManager{
		auth:       NewAuthMiddleware(serviceManager.Auth(), serviceManager.Identity(), cfg.SessionCookie, logger),
		ttsLimiter: NewClientRateLimiter(cfg.Speech.RatePerMinute),
		authHandler: NewAuthHandler(serviceManager.Auth(), serviceManager.Identity(),
			cfg.SessionCookie, cfg.AppOrigin, secureCookie, logger),
		patientHandler:  NewPatientHandler(serviceManager.Patient(), logger),
		memoryHandler:   NewMemoryHandler(serviceManager.Memory(), logger),
		captionHandler:  NewCaptionHandler(serviceManager.Caption(), logger),
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), logger),
		speechHandler:   NewSpeechHandler(serviceManager.Speech(), logger),
		insightsHandler: NewInsightsHandler(serviceManager.Insights(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	authRoutes := router.Group("/auth")
	{
		authRoutes.GET("/login", hm.authHandler.Login)
		authRoutes.GET("/callback", hm.authHandler.Callback)
		authRoutes.GET("/logout", hm.authHandler.Logout)
	}

	caregiver := hm.auth.RequireRole(models.RoleCaregiver)
	anyRole := hm.auth.RequireRole(models.RoleCaregiver, models.RolePatient)
	patient := hm.auth.RequireRole(models.RolePatient)

	api := router.Group("/api")
	api.GET("/me", hm.auth.Authenticate(false), hm.authHandler.Me)
	api.GET("/tts", hm.speechHandler.Health)

	authed := api.Group("", hm.auth.Authenticate(true))
	{
		patients := authed.Group("/patients")
		{
			patients.POST("/create", caregiver, hm.patientHandler.CreatePatient)
			patients.GET("/list", caregiver, hm.patientHandler.ListPatients)
			patients.GET("/me", patient, hm.patientHandler.Me)
			patients.POST("/accept", hm.patientHandler.AcceptInvite)
			patients.GET("/:id/insights", caregiver, hm.insightsHandler.GetInsights)
			patients.GET("/:id/results/export", caregiver, hm.insightsHandler.ExportResults)
		}

		authed.POST("/upload", caregiver, hm.memoryHandler.Upload)
		authed.POST("/caption", caregiver, hm.captionHandler.Caption)
		authed.POST("/prompts", caregiver, hm.captionHandler.Prompts)

		memories := authed.Group("/memories", caregiver)
		{
			memories.GET("", hm.memoryHandler.ListMemories)
			memories.GET("/:id", hm.memoryHandler.GetMemory)
			memories.PATCH("/:id", hm.memoryHandler.PatchMemory)
		}

		quiz := authed.Group("/quiz", anyRole)
		{
			quiz.POST("/generate", hm.quizHandler.GenerateQuiz)
			quiz.POST("/answer", hm.quizHandler.AnswerQuestion)
			quiz.GET("/sessions/:id", hm.quizHandler.GetSession)
			quiz.GET("/sessions/:id/result", hm.quizHandler.GetResult)
		}

		authed.POST("/tts", hm.ttsLimiter.Middleware(), hm.speechHandler.Synthesize)
	}
}

// HealthCheck reports liveness
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
