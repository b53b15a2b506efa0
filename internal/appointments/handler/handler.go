package handler

import (
	"net/http"

	"clinicportal_backend/internal/appointments/service"
	"clinicportal_backend/internal/appointments/transport"
	"clinicportal_backend/platform/httpkit"
	"clinicportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/complete", h.Complete)
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	appt, err := h.svc.Create(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, appt)
}

func (h *Handler) List(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.ListAppointmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	appointments, err := h.svc.List(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, appointments)
}

func (h *Handler) GetByID(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	appt, err := h.svc.GetByID(c.Request.Context(), clinicID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, appt)
}

func (h *Handler) Cancel(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	appt, err := h.svc.Cancel(c.Request.Context(), clinicID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, appt)
}

func (h *Handler) Complete(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	appt, err := h.svc.Complete(c.Request.Context(), clinicID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, appt)
}

func (h *Handler) clinicAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}

	return clinicID, id, true
}
