package handler

import (
	"net/http"
	"strconv"

	"clinicportal_backend/internal/chat/service"
	"clinicportal_backend/internal/chat/transport"
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
	rg.GET("/conversations", h.ListConversations)
	rg.GET("/conversations/:id/messages", h.ListMessages)
	rg.POST("/leads/:leadId/messages", h.Send)
}

// RegisterWebhookRoutes mounts the inbound message endpoint the external
// messaging provider calls.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/messages/:clinicId", h.ReceiveInbound)
}

func (h *Handler) ListConversations(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	conversations, err := h.svc.ListConversations(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, conversations)
}

func (h *Handler) ListMessages(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	messages, err := h.svc.ListMessages(c.Request.Context(), clinicID, conversationID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, messages)
}

func (h *Handler) Send(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), clinicID, leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, msg)
}

func (h *Handler) ReceiveInbound(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.ReceiveInbound(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, msg)
}
