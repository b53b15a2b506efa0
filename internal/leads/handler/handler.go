package handler

import (
	"net/http"

	"clinicportal_backend/internal/leads/service"
	"clinicportal_backend/internal/leads/transport"
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
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/move", h.Move)
	rg.PUT("/:id/ai-conversation", h.SetAIConversation)
	rg.POST("/:id/ai-conversation/toggle", h.ToggleAIConversation)
}

// RegisterAdminRoutes mounts operator endpoints for acting on a clinic's
// leads in bulk.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads/resolve-ai", h.ResolveUnresolved)
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), clinicID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), clinicID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), clinicID, id)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) List(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) Move(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.MoveToStage(c.Request.Context(), clinicID, id, req.StageID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) SetAIConversation(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.SetAIConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.SetAIConversation(c.Request.Context(), clinicID, id, req.Enabled)) {
		return
	}

	httpkit.OK(c, transport.AIConversationResponse{LeadID: id, Enabled: req.Enabled})
}

func (h *Handler) ToggleAIConversation(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	enabled, err := h.svc.ToggleAIConversation(c.Request.Context(), clinicID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AIConversationResponse{LeadID: id, Enabled: enabled})
}

// ResolveUnresolved re-runs the AI activation resolver over every lead of
// the acting clinic whose flag is still unresolved.
func (h *Handler) ResolveUnresolved(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	resolved, err := h.svc.ResolveUnresolved(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"resolved": resolved})
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
