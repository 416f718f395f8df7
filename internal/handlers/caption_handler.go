package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

type CaptionHandler struct {
	BaseHandler
	captionService services.CaptionService
}

func NewCaptionHandler(captionService services.CaptionService, logger utils.Logger) *CaptionHandler {
	return &CaptionHandler{
		BaseHandler:    NewBaseHandler(logger),
		captionService: captionService,
	}
}

// Caption describes a memory photo and stores caption and tags
// @Summary Caption memory
// @Tags captions
// @Accept json
// @Produce json
// @Param body body services.CaptionRequest true "Memory and image"
// @Success 200 {object} services.CaptionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/caption [post]
func (h *CaptionHandler) Caption(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	var req services.CaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleServiceError(c, services.ErrCaptionInputRequired)
		return
	}

	resp, err := h.captionService.CaptionMemory(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Recall prompts for a caption
// @Tags captions
// @Accept json
// @Produce json
// @Param body body services.PromptsRequest true "Caption and tags"
// @Success 200 {object} services.PromptsResponse
// @Router /api/prompts [post]
func (h *CaptionHandler) Prompts(c *gin.Context) {
	var req services.PromptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	resp, err := h.captionService.RecallPrompts(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
