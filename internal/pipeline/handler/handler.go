package handler

import (
	"net/http"

	"clinicportal_backend/internal/pipeline/service"
	"clinicportal_backend/internal/pipeline/transport"
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
	rg.GET("/board", h.Board)
	rg.PUT("/:id", h.Rename)
	rg.POST("/:id/reorder", h.Reorder)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	stages, err := h.svc.List(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, stages)
}

func (h *Handler) Board(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	columns, err := h.svc.Board(c.Request.Context(), clinicID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, columns)
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, ok := httpkit.CurrentClinicID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req transport.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Create(c.Request.Context(), clinicID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, stage)
}

func (h *Handler) Rename(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.RenameStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.Rename(c.Request.Context(), clinicID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, stage)
}

func (h *Handler) Reorder(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.ReorderStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stages, err := h.svc.Reorder(c.Request.Context(), clinicID, id, req.TargetStageID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, stages)
}

// Delete accepts the migration target either in the JSON body or as a
// targetStageId query parameter, since some HTTP clients drop DELETE bodies.
func (h *Handler) Delete(c *gin.Context) {
	clinicID, id, ok := h.clinicAndID(c)
	if !ok {
		return
	}

	var req transport.DeleteStageRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if req.TargetStageID == nil {
		if raw := c.Query("targetStageId"); raw != "" {
			target, err := uuid.Parse(raw)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
				return
			}
			req.TargetStageID = &target
		}
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), clinicID, id, req.TargetStageID)) {
		return
	}

	httpkit.NoContent(c)
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
