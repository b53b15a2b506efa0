package handler

import (
	"net/http"

	"clinicportal_backend/internal/clinics/service"
	"clinicportal_backend/internal/clinics/transport"
	"clinicportal_backend/platform/httpkit"
	"clinicportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
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

// RegisterRoutes mounts the current-clinic settings surface. Creation and
// listing are admin-only and registered separately.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.PUT("", h.Update)
	rg.GET("/ai-settings", h.AISettings)
	rg.PUT("/ai-settings", h.UpdateAISettings)
	rg.GET("/business-hours", h.BusinessHours)
	rg.PUT("/business-hours", h.UpdateBusinessHours)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	clinic, err := h.svc.GetByID(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, clinic)
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	clinic, err := h.svc.Update(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, clinic)
}

func (h *Handler) AISettings(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	settings, err := h.svc.AISettings(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, settings)
}

func (h *Handler) UpdateAISettings(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	settings, err := h.svc.UpdateAISettings(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, settings)
}

func (h *Handler) BusinessHours(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	hours, err := h.svc.BusinessHours(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, hours)
}

func (h *Handler) UpdateBusinessHours(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.UpdateBusinessHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	hours, err := h.svc.UpdateBusinessHours(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, hours)
}

func (h *Handler) List(c *gin.Context) {
	clinics, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, clinics)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	clinic, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, clinic)
}
