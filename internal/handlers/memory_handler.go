package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

type MemoryHandler struct {
	BaseHandler
	memoryService services.MemoryService
}

func NewMemoryHandler(memoryService services.MemoryService, logger utils.Logger) *MemoryHandler {
	return &MemoryHandler{
		BaseHandler:   NewBaseHandler(logger),
		memoryService: memoryService,
	}
}

// Upload stores a photo as a new memory
// @Summary Upload memory
// @Tags memories
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param patientId formData string true "Patient ID"
// @Param title formData string false "Title"
// @Success 200 {object} OKResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/upload [post]
func (h *MemoryHandler) Upload(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.handleServiceError(c, services.ErrFileTooLarge)
			return
		}
		h.handleServiceError(c, services.ErrNoFileUploaded)
		return
	}
	if fileHeader.Size > services.MaxUploadBytes {
		h.handleServiceError(c, services.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable upload", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable upload", err)
		return
	}

	req := &services.UploadMemoryRequest{
		PatientID:   c.PostForm("patientId"),
		Title:       c.PostForm("title"),
		PersonName:  c.PostForm("personName"),
		EventName:   c.PostForm("eventName"),
		PlaceName:   c.PostForm("placeName"),
		DateLabel:   c.PostForm("dateLabel"),
		ContentType: fileHeader.Header.Get("Content-Type"),
		Image:       data,
	}

	h.LogRequest(c, "Uploading memory", "patient_id", req.PatientID, "bytes", len(data))

	memory, err := h.memoryService.Upload(c.Request.Context(), identity.Sub, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true, Memory: memory})
}

// @Summary List memories for a patient
// @Tags memories
// @Produce json
// @Param patientId query string true "Patient ID"
// @Success 200 {array} models.Memory
// @Router /api/memories [get]
func (h *MemoryHandler) ListMemories(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	memories, err := h.memoryService.List(c.Request.Context(), identity.Sub, c.Query("patientId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, memories)
}

// @Summary Get memory
// @Tags memories
// @Produce json
// @Param id path string true "Memory ID"
// @Success 200 {object} models.Memory
// @Failure 404 {object} ErrorResponse
// @Router /api/memories/{id} [get]
func (h *MemoryHandler) GetMemory(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	memory, err := h.memoryService.Get(c.Request.Context(), identity.Sub, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

// PatchMemory edits the allow-listed memory fields
// @Summary Update memory
// @Tags memories
// @Accept json
// @Produce json
// @Param id path string true "Memory ID"
// @Success 200 {object} OKResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/memories/{id} [patch]
func (h *MemoryHandler) PatchMemory(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	memory, err := h.memoryService.Patch(c.Request.Context(), identity.Sub, id, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true, Memory: memory})
}
