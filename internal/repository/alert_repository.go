package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"alerts-service/internal/engine"
	"alerts-service/internal/models"
)

// Cache TTL constants
const (
	SettingsCacheTTL = 30 * time.Minute // Threshold settings rarely change
	SummaryCacheTTL  = 1 * time.Minute  // Alert summary - needs to be fresh

	cacheKeyPrefix = "alerts:"
)

type AlertRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewAlertRepository(db *gorm.DB, redisClient *redis.Client) *AlertRepository {
	return &AlertRepository{
		db:    db,
		redis: redisClient,
	}
}

func settingsCacheKey(tenantID, branchID string) string {
	return fmt.Sprintf("%ssettings:%s:%s", cacheKeyPrefix, tenantID, branchID)
}

func summaryCacheKey(tenantID, branchID string) string {
	return fmt.Sprintf("%ssummary:%s:%s", cacheKeyPrefix, tenantID, branchID)
}

// RedisHealth returns the health status of the Redis connection
func (r *AlertRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// ========== Threshold Settings Operations ==========

// LoadSettings returns the branch threshold settings row, or nil when the
// branch has never saved settings. Callers resolve nil to defaults through
// models.BranchAlertSettings.Thresholds, so loading never fails a request
// for a fresh branch.
func (r *AlertRepository) LoadSettings(ctx context.Context, tenantID, branchID string) (*models.BranchAlertSettings, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, settingsCacheKey(tenantID, branchID)).Result(); err == nil {
			var settings models.BranchAlertSettings
			if err := json.Unmarshal([]byte(val), &settings); err == nil {
				return &settings, nil
			}
		}
	}

	var settings models.BranchAlertSettings
	err := r.db.Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(settings); err == nil {
			r.redis.Set(ctx, settingsCacheKey(tenantID, branchID), data, SettingsCacheTTL)
		}
	}

	return &settings, nil
}

// LoadThresholds resolves the effective threshold config for a branch.
func (r *AlertRepository) LoadThresholds(ctx context.Context, tenantID, branchID string) (engine.ThresholdConfig, error) {
	settings, err := r.LoadSettings(ctx, tenantID, branchID)
	if err != nil {
		return engine.DefaultThresholds(), err
	}
	return settings.Thresholds(), nil
}

// SaveSettings validates and upserts the branch threshold settings.
// Invalid configs are rejected with an engine.ValidationError before any
// write happens.
func (r *AlertRepository) SaveSettings(ctx context.Context, tenantID, branchID string, cfg engine.ThresholdConfig, updatedBy *string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	now := time.Now()
	var settings models.BranchAlertSettings
	err := r.db.Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.BranchAlertSettings{
			TenantID:  tenantID,
			BranchID:  branchID,
			CreatedAt: now,
		}
	} else if err != nil {
		return err
	}

	settings.LowStockThreshold = &cfg.LowStockThreshold
	settings.CriticalStockThreshold = &cfg.CriticalStockThreshold
	settings.ExpiryWarningDays = &cfg.ExpiryWarningDays
	settings.CriticalExpiryDays = &cfg.CriticalExpiryDays
	settings.UpdatedAt = now
	settings.UpdatedBy = updatedBy

	if err := r.db.Save(&settings).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Del(ctx, settingsCacheKey(tenantID, branchID))
		r.redis.Del(ctx, summaryCacheKey(tenantID, branchID))
	}

	return nil
}

// ========== Inventory / Batch Reads ==========

// ListInventory returns the stock snapshot rows for one branch.
func (r *AlertRepository) ListInventory(tenantID, branchID string) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		Order("product_name ASC").
		Find(&records).Error
	return records, err
}

// ListActiveBatches returns active, non-empty batches for the given
// inventory records.
func (r *AlertRepository) ListActiveBatches(tenantID string, inventoryIDs []uuid.UUID) ([]models.StockBatch, error) {
	if len(inventoryIDs) == 0 {
		return nil, nil
	}
	var batches []models.StockBatch
	err := r.db.Where("tenant_id = ? AND inventory_id IN ? AND is_active = ? AND quantity > 0",
		tenantID, inventoryIDs, true).
		Order("expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

// EvaluationInputs maps branch inventory and batch rows into the engine's
// input form.
func (r *AlertRepository) EvaluationInputs(tenantID, branchID string) ([]engine.InventoryRecord, []engine.BatchRecord, error) {
	rows, err := r.ListInventory(tenantID, branchID)
	if err != nil {
		return nil, nil, err
	}

	inventory := make([]engine.InventoryRecord, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		inventory = append(inventory, engine.InventoryRecord{
			ID:                row.ID,
			ProductID:         row.ProductID,
			ProductName:       row.ProductName,
			ProductSKU:        row.ProductSKU,
			AvailableQuantity: row.AvailableQuantity,
			LowStockThreshold: row.LowStockThreshold,
		})
		ids = append(ids, row.ID)
	}

	batchRows, err := r.ListActiveBatches(tenantID, ids)
	if err != nil {
		return nil, nil, err
	}
	batches := make([]engine.BatchRecord, 0, len(batchRows))
	for _, b := range batchRows {
		batches = append(batches, engine.BatchRecord{
			ID:          b.ID,
			InventoryID: b.InventoryID,
			ExpiryDate:  b.ExpiryDate,
			Quantity:    b.Quantity,
			IsActive:    b.IsActive,
		})
	}

	return inventory, batches, nil
}

// ========== Notification Operations ==========

// SyncNotifications persists derived alerts that have no live notification
// row yet. The deterministic alert id keyed per tenant makes the sync
// idempotent; existing rows keep their lifecycle state untouched. Returns
// the newly created rows for event publishing.
func (r *AlertRepository) SyncNotifications(tenantID, branchID string, alerts []engine.Alert) ([]models.AlertNotification, error) {
	var created []models.AlertNotification

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range alerts {
			var existingCount int64
			if err := tx.Model(&models.AlertNotification{}).
				Where("tenant_id = ? AND alert_id = ?", tenantID, a.ID).
				Count(&existingCount).Error; err != nil {
				return err
			}
			if existingCount > 0 {
				continue
			}

			now := time.Now()
			notification := models.AlertNotification{
				AlertID:         a.ID,
				TenantID:        tenantID,
				BranchID:        branchID,
				Kind:            a.Kind,
				Severity:        a.Severity,
				SubjectID:       a.SubjectID,
				ProductID:       a.ProductID,
				SubjectLabel:    a.SubjectLabel,
				Quantity:        a.Quantity,
				ThresholdUsed:   a.ThresholdUsed,
				ExpiryDate:      a.ExpiryDate,
				DaysUntilExpiry: a.DaysUntilExpiry,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(&notification).Error; err != nil {
				return err
			}
			created = append(created, notification)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	if r.redis != nil && len(created) > 0 {
		r.redis.Del(context.Background(), summaryCacheKey(tenantID, branchID))
	}

	return created, nil
}

// GetNotification retrieves a notification by its deterministic alert id.
func (r *AlertRepository) GetNotification(tenantID, alertID string) (*models.AlertNotification, error) {
	var notification models.AlertNotification
	err := r.db.Where("tenant_id = ? AND alert_id = ?", tenantID, alertID).
		First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &engine.NotFoundError{AlertID: alertID}
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// NotificationFilter narrows ListNotifications results.
type NotificationFilter struct {
	BranchID   *string
	Kind       *engine.Kind
	Severity   *engine.Severity
	Status     *engine.Status
	UnreadOnly bool
}

// ListNotifications retrieves persisted notifications with filtering and
// pagination, newest first.
func (r *AlertRepository) ListNotifications(tenantID string, filter NotificationFilter, page, limit int) ([]models.AlertNotification, int64, error) {
	var notifications []models.AlertNotification
	var total int64

	query := r.db.Where("tenant_id = ?", tenantID)

	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case engine.StatusResolved:
			query = query.Where("is_resolved = ?", true)
		case engine.StatusAcknowledged:
			query = query.Where("is_acknowledged = ? AND is_resolved = ?", true, false)
		case engine.StatusRead:
			query = query.Where("is_read = ? AND is_acknowledged = ? AND is_resolved = ?", true, false, false)
		case engine.StatusNew:
			query = query.Where("is_read = ? AND is_acknowledged = ? AND is_resolved = ?", false, false, false)
		}
	}

	if err := query.Model(&models.AlertNotification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error

	return notifications, total, err
}

// ========== Lifecycle Operations ==========

// MarkRead sets the read flag on a notification. Legal from any state.
func (r *AlertRepository) MarkRead(tenantID, alertID string) (*models.AlertNotification, error) {
	return r.transition(tenantID, alertID, func(n *models.AlertNotification, _ time.Time) error {
		n.ApplyFlags(engine.MarkRead(n.Flags()))
		return nil
	})
}

// Acknowledge marks a notification acknowledged; rejected once resolved.
func (r *AlertRepository) Acknowledge(tenantID, alertID string, actor *string) (*models.AlertNotification, error) {
	return r.transition(tenantID, alertID, func(n *models.AlertNotification, now time.Time) error {
		flags, err := engine.Acknowledge(n.Flags(), now)
		if err != nil {
			return err
		}
		n.ApplyFlags(flags)
		n.AcknowledgedBy = actor
		return nil
	})
}

// Resolve marks a notification resolved. Terminal.
func (r *AlertRepository) Resolve(tenantID, alertID string) (*models.AlertNotification, error) {
	return r.transition(tenantID, alertID, func(n *models.AlertNotification, now time.Time) error {
		n.ApplyFlags(engine.Resolve(n.Flags(), now))
		return nil
	})
}

// transition runs a read-modify-write of the lifecycle columns. Conflict
// handling is delegated to the store; "not found" and "already terminal"
// surface as typed errors rather than failures of the whole request.
func (r *AlertRepository) transition(tenantID, alertID string, apply func(*models.AlertNotification, time.Time) error) (*models.AlertNotification, error) {
	notification, err := r.GetNotification(tenantID, alertID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := apply(notification, now); err != nil {
		return nil, err
	}
	notification.UpdatedAt = now

	if err := r.db.Model(&models.AlertNotification{}).
		Where("tenant_id = ? AND alert_id = ?", tenantID, alertID).
		Updates(map[string]interface{}{
			"is_read":         notification.IsRead,
			"is_acknowledged": notification.IsAcknowledged,
			"is_resolved":     notification.IsResolved,
			"acknowledged_by": notification.AcknowledgedBy,
			"acknowledged_at": notification.AcknowledgedAt,
			"resolved_at":     notification.ResolvedAt,
			"updated_at":      notification.UpdatedAt,
		}).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.redis.Del(context.Background(), summaryCacheKey(tenantID, notification.BranchID))
	}

	return notification, nil
}

// BulkTransition applies one lifecycle action per id, collecting per-id
// outcomes. A failure on one id never silently affects the others; callers
// get the full success/failure breakdown.
func (r *AlertRepository) BulkTransition(tenantID string, ids []string, action models.LifecycleAction, actor *string) []models.BulkLifecycleOutcome {
	outcomes := make([]models.BulkLifecycleOutcome, 0, len(ids))

	for _, id := range ids {
		var err error
		switch action {
		case models.LifecycleActionRead:
			_, err = r.MarkRead(tenantID, id)
		case models.LifecycleActionAcknowledge:
			_, err = r.Acknowledge(tenantID, id, actor)
		case models.LifecycleActionResolve:
			_, err = r.Resolve(tenantID, id)
		default:
			err = fmt.Errorf("unknown lifecycle action %q", action)
		}

		outcome := models.BulkLifecycleOutcome{ID: id, Success: err == nil}
		if err != nil {
			outcome.Error = &models.Error{Code: lifecycleErrorCode(err), Message: err.Error()}
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func lifecycleErrorCode(err error) string {
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return "NOT_FOUND"
	}
	var invalid *engine.InvalidTransitionError
	if errors.As(err, &invalid) {
		return "INVALID_TRANSITION"
	}
	return "UPDATE_FAILED"
}

// ========== Summary ==========

// GetSummary tallies unresolved notifications by severity for one branch.
func (r *AlertRepository) GetSummary(ctx context.Context, tenantID, branchID string) (*engine.SeverityCount, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, summaryCacheKey(tenantID, branchID)).Result(); err == nil {
			var counts engine.SeverityCount
			if err := json.Unmarshal([]byte(val), &counts); err == nil {
				return &counts, nil
			}
		}
	}

	var results []struct {
		Severity engine.Severity
		Count    int
	}
	err := r.db.Model(&models.AlertNotification{}).
		Select("severity, count(*) as count").
		Where("tenant_id = ? AND branch_id = ? AND is_resolved = ?", tenantID, branchID, false).
		Group("severity").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := &engine.SeverityCount{}
	for _, res := range results {
		counts.Total += res.Count
		switch res.Severity {
		case engine.SeverityCritical:
			counts.Critical += res.Count
		case engine.SeverityHigh:
			counts.High += res.Count
		case engine.SeverityMedium:
			counts.Medium += res.Count
		case engine.SeverityLow:
			counts.Low += res.Count
		}
	}

	if r.redis != nil {
		if data, err := json.Marshal(counts); err == nil {
			r.redis.Set(ctx, summaryCacheKey(tenantID, branchID), data, SummaryCacheTTL)
		}
	}

	return counts, nil
}

// ========== Audit Log Operations ==========

// CreateAuditLog appends an audit entry. Best-effort from callers; audit
// failures never fail the originating request.
func (r *AlertRepository) CreateAuditLog(tenantID string, entry *models.AuditLog) error {
	entry.TenantID = tenantID
	entry.CreatedAt = time.Now()
	return r.db.Create(entry).Error
}

// ListAuditLogs retrieves audit entries with pagination, newest first.
func (r *AlertRepository) ListAuditLogs(tenantID string, entityID *string, page, limit int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := r.db.Where("tenant_id = ?", tenantID)
	if entityID != nil {
		query = query.Where("entity_id = ?", *entityID)
	}

	if err := query.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error

	return logs, total, err
}
