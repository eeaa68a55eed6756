package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"alerts-service/internal/engine"
	"alerts-service/internal/events"
	"alerts-service/internal/middleware"
	"alerts-service/internal/models"
	"alerts-service/internal/repository"
)

type AlertHandler struct {
	repo           *repository.AlertRepository
	eventPublisher *events.AlertEventPublisher
}

func NewAlertHandler(repo *repository.AlertRepository, eventPublisher *events.AlertEventPublisher) *AlertHandler {
	return &AlertHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
	}
}

// ========== Alert Evaluation Handlers ==========

// ListAlerts derives the current alert set for the branch and returns it
// ranked for display, with severity counts.
// GET /api/v1/alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	cfg, err := h.repo.LoadThresholds(c.Request.Context(), tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SETTINGS_LOAD_FAILED",
				Message: "Failed to load alert settings",
			},
		})
		return
	}

	inventory, batches, err := h.repo.EvaluationInputs(tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load inventory for evaluation",
			},
		})
		return
	}

	alerts, counts := engine.Aggregate(inventory, batches, cfg, time.Now())
	ranked := engine.Rank(alerts)

	// Optional kind/severity filters for the console's filter panel.
	if kind := c.Query("kind"); kind != "" {
		ranked = filterAlerts(ranked, func(a engine.Alert) bool { return a.Kind == engine.Kind(kind) })
	}
	if severity := c.Query("severity"); severity != "" {
		ranked = filterAlerts(ranked, func(a engine.Alert) bool { return a.Severity == engine.Severity(severity) })
	}

	// Counts cover the unfiltered alert set; the page windows the filtered list.
	page, limit := parsePagination(c)
	total := len(ranked)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, models.AlertListResponse{
		Success: true,
		Data:    ranked[start:end],
		Counts:  &counts,
		Pagination: &models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: int64(total),
			TotalPages: totalPages,
		},
	})
}

// GetAlertSummary returns severity counts over the current derived alert set.
// GET /api/v1/alerts/summary
func (h *AlertHandler) GetAlertSummary(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	cfg, err := h.repo.LoadThresholds(c.Request.Context(), tenantID, branchID)
	if err == nil {
		var inventory []engine.InventoryRecord
		var batches []engine.BatchRecord
		inventory, batches, err = h.repo.EvaluationInputs(tenantID, branchID)
		if err == nil {
			_, counts := engine.Aggregate(inventory, batches, cfg, time.Now())
			c.JSON(http.StatusOK, models.SummaryResponse{
				Success: true,
				Data:    &counts,
			})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "FETCH_FAILED",
			Message: "Failed to compute alert summary",
		},
	})
}

// CheckAlerts runs evaluation and persists notifications for alerts that
// have no live row yet, then publishes events for the new ones.
// POST /api/v1/alerts/check
func (h *AlertHandler) CheckAlerts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	cfg, err := h.repo.LoadThresholds(c.Request.Context(), tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SETTINGS_LOAD_FAILED",
				Message: "Failed to load alert settings",
			},
		})
		return
	}

	inventory, batches, err := h.repo.EvaluationInputs(tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load inventory for evaluation",
			},
		})
		return
	}

	alerts, counts := engine.Aggregate(inventory, batches, cfg, time.Now())

	created, err := h.repo.SyncNotifications(tenantID, branchID, alerts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CHECK_FAILED",
				Message: "Failed to persist alert notifications",
			},
		})
		return
	}

	// Publish events for created notifications (non-blocking, detached from
	// the request context so the response never waits on NATS)
	if h.eventPublisher != nil && len(created) > 0 {
		go func(notifications []models.AlertNotification) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			for _, n := range notifications {
				_ = h.eventPublisher.PublishAlertRaised(ctx, n)
			}
		}(created)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: map[string]interface{}{
			"alertsEvaluated":      counts.Total,
			"notificationsCreated": len(created),
		},
		Message: stringPtr("Alert check completed"),
	})
}

// ========== Notification Handlers ==========

// ListNotifications retrieves persisted notifications with filters.
// GET /api/v1/notifications
func (h *AlertHandler) ListNotifications(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	filter := repository.NotificationFilter{}
	if branch := c.Query("branchId"); branch != "" {
		filter.BranchID = &branch
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		k := engine.Kind(kindStr)
		filter.Kind = &k
	}
	if severityStr := c.Query("severity"); severityStr != "" {
		s := engine.Severity(severityStr)
		filter.Severity = &s
	}
	if statusStr := c.Query("status"); statusStr != "" {
		s := engine.Status(statusStr)
		filter.Status = &s
	}
	filter.UnreadOnly = c.Query("unread") == "true"

	page, limit := parsePagination(c)

	notifications, total, err := h.repo.ListNotifications(tenantID, filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve notifications",
			},
		})
		return
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, models.NotificationListResponse{
		Success: true,
		Data:    notifications,
		Pagination: &models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

// GetNotificationSummary tallies unresolved notifications by severity.
// GET /api/v1/notifications/summary
func (h *AlertHandler) GetNotificationSummary(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	counts, err := h.repo.GetSummary(c.Request.Context(), tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve notification summary",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SummaryResponse{
		Success: true,
		Data:    counts,
	})
}

// GetNotification retrieves a single notification by alert id.
// GET /api/v1/notifications/:id
func (h *AlertHandler) GetNotification(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	notification, err := h.repo.GetNotification(tenantID, c.Param("id"))
	if err != nil {
		status, code := lifecycleErrorStatus(err)
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.NotificationResponse{
		Success: true,
		Data:    notification,
	})
}

// MarkRead sets the read flag. Never fails on state; only on a missing row.
// POST /api/v1/notifications/:id/read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	h.lifecycle(c, "read", func(tenantID, alertID string, _ *string) (*models.AlertNotification, error) {
		return h.repo.MarkRead(tenantID, alertID)
	})
}

// Acknowledge marks a notification acknowledged.
// POST /api/v1/notifications/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	h.lifecycle(c, "acknowledge", func(tenantID, alertID string, actor *string) (*models.AlertNotification, error) {
		return h.repo.Acknowledge(tenantID, alertID, actor)
	})
}

// Resolve marks a notification resolved.
// POST /api/v1/notifications/:id/resolve
func (h *AlertHandler) Resolve(c *gin.Context) {
	h.lifecycle(c, "resolve", func(tenantID, alertID string, _ *string) (*models.AlertNotification, error) {
		return h.repo.Resolve(tenantID, alertID)
	})
}

func (h *AlertHandler) lifecycle(c *gin.Context, action string, apply func(string, string, *string) (*models.AlertNotification, error)) {
	tenantID := middleware.GetTenantID(c)
	alertID := c.Param("id")

	var actor *string
	if userID := middleware.GetUserID(c); userID != "" {
		actor = &userID
	}

	notification, err := apply(tenantID, alertID, actor)
	if err != nil {
		status, code := lifecycleErrorStatus(err)
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	h.audit(c, action, "notification", alertID, nil)

	c.JSON(http.StatusOK, models.NotificationResponse{
		Success: true,
		Data:    notification,
		Message: stringPtr("Notification updated successfully"),
	})
}

// BulkLifecycle applies one transition per id and reports per-id outcomes.
// A failed id never hides the others; the console renders "N of M succeeded".
// PATCH /api/v1/notifications/bulk
func (h *AlertHandler) BulkLifecycle(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.BulkLifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	switch req.Action {
	case models.LifecycleActionRead, models.LifecycleActionAcknowledge, models.LifecycleActionResolve:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "action must be one of read, acknowledge, resolve",
			},
		})
		return
	}

	var actor *string
	if userID := middleware.GetUserID(c); userID != "" {
		actor = &userID
	}

	outcomes := h.repo.BulkTransition(tenantID, req.IDs, req.Action, actor)

	successCount := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			successCount++
		}
	}

	h.audit(c, "bulk_"+string(req.Action), "notification", "", &models.JSON{
		"total":     len(outcomes),
		"succeeded": successCount,
	})

	c.JSON(http.StatusOK, models.BulkLifecycleResponse{
		Success:      successCount == len(outcomes),
		TotalCount:   len(outcomes),
		SuccessCount: successCount,
		FailedCount:  len(outcomes) - successCount,
		Results:      outcomes,
	})
}

// ========== Settings Handlers ==========

// GetSettings returns the effective threshold config for the branch,
// falling back to defaults when nothing was saved yet.
// GET /api/v1/settings/alerts
func (h *AlertHandler) GetSettings(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	cfg, err := h.repo.LoadThresholds(c.Request.Context(), tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load alert settings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SettingsResponse{
		Success: true,
		Data:    &cfg,
	})
}

// SaveSettings validates and persists the branch threshold config. Ordering
// violations are rejected, never clamped.
// PUT /api/v1/settings/alerts
func (h *AlertHandler) SaveSettings(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	cfg := engine.ThresholdConfig{
		LowStockThreshold:      req.LowStockThreshold,
		CriticalStockThreshold: req.CriticalStockThreshold,
		ExpiryWarningDays:      req.ExpiryWarningDays,
		CriticalExpiryDays:     req.CriticalExpiryDays,
	}

	var actor *string
	if userID := middleware.GetUserID(c); userID != "" {
		actor = &userID
	}

	if err := h.repo.SaveSettings(c.Request.Context(), tenantID, req.BranchID, cfg, actor); err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: verr.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SAVE_FAILED",
				Message: "Failed to save alert settings",
			},
		})
		return
	}

	h.audit(c, "save_settings", "branch_alert_settings", req.BranchID, &models.JSON{
		"lowStockThreshold":      cfg.LowStockThreshold,
		"criticalStockThreshold": cfg.CriticalStockThreshold,
		"expiryWarningDays":      cfg.ExpiryWarningDays,
		"criticalExpiryDays":     cfg.CriticalExpiryDays,
	})

	c.JSON(http.StatusOK, models.SettingsResponse{
		Success: true,
		Data:    &cfg,
		Message: stringPtr("Alert settings saved successfully"),
	})
}

// ========== Audit Log Handlers ==========

// ListAuditLogs retrieves the audit trail, optionally for one entity.
// GET /api/v1/audit-logs
func (h *AlertHandler) ListAuditLogs(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var entityID *string
	if id := c.Query("entityId"); id != "" {
		entityID = &id
	}

	page, limit := parsePagination(c)

	logs, total, err := h.repo.ListAuditLogs(tenantID, entityID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve audit logs",
			},
		})
		return
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, models.AuditLogListResponse{
		Success: true,
		Data:    logs,
		Pagination: &models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

// audit appends an audit entry. Best-effort: audit failures never fail the
// originating request.
func (h *AlertHandler) audit(c *gin.Context, action, entityType, entityID string, details *models.JSON) {
	actorID := middleware.GetUserID(c)
	if actorID == "" {
		actorID = "system"
	}
	_ = h.repo.CreateAuditLog(middleware.GetTenantID(c), &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

// ========== Helpers ==========

func lifecycleErrorStatus(err error) (int, string) {
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, "NOT_FOUND"
	}
	var invalid *engine.InvalidTransitionError
	if errors.As(err, &invalid) {
		return http.StatusConflict, "INVALID_TRANSITION"
	}
	return http.StatusInternalServerError, "UPDATE_FAILED"
}

func filterAlerts(alerts []engine.Alert, keep func(engine.Alert) bool) []engine.Alert {
	filtered := make([]engine.Alert, 0, len(alerts))
	for _, a := range alerts {
		if keep(a) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func parsePagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 20
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return page, limit
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
