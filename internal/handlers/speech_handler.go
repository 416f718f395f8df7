package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

type SpeechHandler struct {
	BaseHandler
	speechService services.SpeechService
}

func NewSpeechHandler(speechService services.SpeechService, logger utils.Logger) *SpeechHandler {
	return &SpeechHandler{
		BaseHandler:   NewBaseHandler(logger),
		speechService: speechService,
	}
}

// Synthesize relays text to the speech provider and streams the audio back
// @Summary Text to speech
// @Tags speech
// @Accept json
// @Produce audio/mpeg
// @Param body body services.SpeechRequest true "Text and voice settings"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/tts [post]
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req services.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleServiceError(c, services.ErrSpeechTextRequired)
		return
	}

	stream, err := h.speechService.Synthesize(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer stream.Body.Close()

	c.DataFromReader(http.StatusOK, stream.ContentLength, stream.ContentType, stream.Body, map[string]string{
		"Cache-Control": "no-store",
	})
}

// @Summary Speech proxy health
// @Tags speech
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/tts [get]
func (h *SpeechHandler) Health(c *gin.Context) {
	ok := h.speechService.Configured()
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(status, gin.H{
		"ok": ok,
		"ts": time.Now().UTC().Format(time.RFC3339),
	})
}
