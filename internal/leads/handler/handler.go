// Package handler exposes the leads HTTP API on gin.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"leadqual_backend/internal/leads/service"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/platform/httpkit"
	"leadqual_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingActor     = "missing or invalid " + httpkit.ActorHeader + " header"
)

// Requalifier enqueues a batch requalification run for background
// processing. Nil when no task queue is configured.
type Requalifier interface {
	EnqueueBatchRequalify(ctx context.Context, actorID uuid.UUID, statuses []string) error
}

type Handler struct {
	svc         *service.Service
	val         *validator.Validator
	requalifier Requalifier
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetRequalifier wires the background task queue. When unset the batch
// requalify endpoint reports the queue as unavailable.
func (h *Handler) SetRequalifier(r Requalifier) {
	h.requalifier = r
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/import", h.Import)
	rg.POST("/requalify", h.BatchRequalify)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/qualify", h.Qualify)
	rg.GET("/:id/decisions", h.ListDecisions)
	rg.POST("/:id/decisions", h.Decide)
}

// RegisterReportingRoutes mounts the audit and KPI endpoints, which live
// outside the /leads resource.
func (h *Handler) RegisterReportingRoutes(rg *gin.RouterGroup) {
	rg.GET("/audits", h.ListAudits)
	rg.GET("/stats/kpi", h.KPI)
}

func (h *Handler) Create(c *gin.Context) {
	actorID, ok := httpkit.GetActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingActor, nil)
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

	lead, err := h.svc.Create(c.Request.Context(), actorID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 1000", nil)
			return
		}
		limit = parsed
	}

	leads, err := h.svc.List(c.Request.Context(), c.Query("status"), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"leads": leads, "count": len(leads)})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

// Qualify returns the engine verdict for a lead without recording it.
func (h *Handler) Qualify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Qualify(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Decide(c *gin.Context) {
	actorID, ok := httpkit.GetActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingActor, nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// An empty body records the engine verdict as-is.
	var req transport.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	decision, err := h.svc.Decide(c.Request.Context(), actorID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, decision)
}

func (h *Handler) ListDecisions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	decisions, err := h.svc.ListDecisions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"decisions": decisions, "count": len(decisions)})
}

// Import accepts a CSV file upload under the "file" form field, or a raw
// CSV body when no multipart form is present.
func (h *Handler) Import(c *gin.Context) {
	actorID, ok := httpkit.GetActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingActor, nil)
		return
	}

	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "could not read uploaded file", nil)
			return
		}
		defer opened.Close()
		body = opened
	}

	result, err := h.svc.ImportCSV(c.Request.Context(), actorID, body)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) BatchRequalify(c *gin.Context) {
	actorID, ok := httpkit.GetActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingActor, nil)
		return
	}

	if h.requalifier == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "task queue not configured", nil)
		return
	}

	var req transport.BatchRequalifyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	statuses := req.Statuses
	if len(statuses) == 0 {
		statuses = []string{"new", "review"}
	}

	if err := h.requalifier.EnqueueBatchRequalify(c.Request.Context(), actorID, statuses); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to enqueue requalification", nil)
		return
	}

	httpkit.JSON(c, http.StatusAccepted, transport.BatchRequalifyResponse{
		Enqueued: len(statuses),
		Statuses: statuses,
	})
}

func (h *Handler) ListAudits(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 1000", nil)
			return
		}
		limit = parsed
	}

	audits, err := h.svc.ListAudits(c.Request.Context(), c.Query("action"), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"audits": audits, "count": len(audits)})
}

func (h *Handler) KPI(c *gin.Context) {
	windowDays := 30
	if raw := c.Query("windowDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			httpkit.Error(c, http.StatusBadRequest, "windowDays must be between 1 and 365", nil)
			return
		}
		windowDays = parsed
	}

	kpi, err := h.svc.KPI(c.Request.Context(), windowDays)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, kpi)
}
