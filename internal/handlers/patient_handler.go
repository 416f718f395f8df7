package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

type PatientHandler struct {
	BaseHandler
	patientService services.PatientService
}

func NewPatientHandler(patientService services.PatientService, logger utils.Logger) *PatientHandler {
	return &PatientHandler{
		BaseHandler:    NewBaseHandler(logger),
		patientService: patientService,
	}
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

// CreatePatient creates a patient record and a sign-up invite
// @Summary Create patient
// @Tags patients
// @Accept json
// @Produce json
// @Param patient body services.CreatePatientRequest true "Patient data"
// @Success 200 {object} services.CreatePatientResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/patients/create [post]
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	var req services.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	resp, err := h.patientService.Create(c.Request.Context(), identity.Sub, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List the caregiver's patients
// @Tags patients
// @Produce json
// @Success 200 {array} services.PatientSummary
// @Router /api/patients/list [get]
func (h *PatientHandler) ListPatients(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	patients, err := h.patientService.List(c.Request.Context(), identity.Sub)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, patients)
}

// @Summary Patient record linked to the signed-in patient
// @Tags patients
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/patients/me [get]
func (h *PatientHandler) Me(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	patient, err := h.patientService.Me(c.Request.Context(), identity.Sub)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"patient": gin.H{
		"id":           patient.ID,
		"displayName":  patient.DisplayName,
		"caregiverSub": patient.CaregiverSub,
	}})
}

// AcceptInvite links the signed-in account to the invited patient record
// @Summary Accept patient invite
// @Tags patients
// @Accept json
// @Produce json
// @Param invite body AcceptInviteRequest true "Invite token"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/patients/accept [post]
func (h *PatientHandler) AcceptInvite(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	patient, err := h.patientService.AcceptInvite(c.Request.Context(), identity, req.Token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"patient": gin.H{"id": patient.ID, "displayName": patient.DisplayName},
	})
}
