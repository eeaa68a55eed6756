package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alerts-service/internal/engine"
)

// JSON type for PostgreSQL JSONB
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// BranchAlertSettings is the per-branch threshold configuration row.
// Columns are nullable; nil falls back to the engine defaults, so a branch
// that never saved settings still classifies. Created on first save, never
// deleted, only overwritten.
type BranchAlertSettings struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_settings_tenant_branch"`
	BranchID string    `json:"branchId" gorm:"type:varchar(255);not null;uniqueIndex:idx_settings_tenant_branch"`

	LowStockThreshold      *int `json:"lowStockThreshold,omitempty"`
	CriticalStockThreshold *int `json:"criticalStockThreshold,omitempty"`
	ExpiryWarningDays      *int `json:"expiryWarningDays,omitempty"`
	CriticalExpiryDays     *int `json:"criticalExpiryDays,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// Thresholds resolves the row into a concrete config, applying defaults for
// missing columns.
func (s *BranchAlertSettings) Thresholds() engine.ThresholdConfig {
	cfg := engine.DefaultThresholds()
	if s == nil {
		return cfg
	}
	if s.LowStockThreshold != nil {
		cfg.LowStockThreshold = *s.LowStockThreshold
	}
	if s.CriticalStockThreshold != nil {
		cfg.CriticalStockThreshold = *s.CriticalStockThreshold
	}
	if s.ExpiryWarningDays != nil {
		cfg.ExpiryWarningDays = *s.ExpiryWarningDays
	}
	if s.CriticalExpiryDays != nil {
		cfg.CriticalExpiryDays = *s.CriticalExpiryDays
	}
	return cfg
}

// InventoryRecord is the current stock snapshot for one product at a branch.
// Read-only input to alert evaluation; maintained by the inventory sync jobs.
type InventoryRecord struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	BranchID  string    `json:"branchId" gorm:"type:varchar(255);not null;index:idx_inventory_tenant_branch"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`

	ProductName string `json:"productName" gorm:"type:varchar(255);not null"`
	ProductSKU  string `json:"productSku" gorm:"type:varchar(100)"`

	AvailableQuantity int  `json:"availableQuantity" gorm:"not null;default:0"`
	LowStockThreshold *int `json:"lowStockThreshold,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// StockBatch is a dated batch of stock belonging to an inventory record.
// Only active batches with positive quantity participate in expiry checks.
type StockBatch struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	InventoryID uuid.UUID `json:"inventoryId" gorm:"type:uuid;not null;index"`

	BatchNumber *string   `json:"batchNumber,omitempty" gorm:"type:varchar(100)"`
	ExpiryDate  time.Time `json:"expiryDate" gorm:"not null;index"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0"`
	IsActive    bool      `json:"isActive" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AlertNotification is the persisted form of a derived alert. AlertID is the
// deterministic engine identity, unique per tenant, so re-running evaluation
// never duplicates a live notification.
type AlertNotification struct {
	ID       uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AlertID  string    `json:"id" gorm:"type:varchar(100);not null;uniqueIndex:idx_notifications_tenant_alert"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_notifications_tenant_alert"`
	BranchID string    `json:"branchId" gorm:"type:varchar(255);not null;index"`

	Kind     engine.Kind     `json:"kind" gorm:"type:varchar(30);not null;index"`
	Severity engine.Severity `json:"severity" gorm:"type:varchar(20);not null;index"`

	SubjectID    uuid.UUID `json:"subjectId" gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	SubjectLabel string    `json:"subjectLabel" gorm:"type:varchar(255);not null"`

	Quantity        int        `json:"quantity" gorm:"not null;default:0"`
	ThresholdUsed   int        `json:"thresholdUsed" gorm:"not null;default:0"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	DaysUntilExpiry *int       `json:"daysUntilExpiry,omitempty"`

	IsRead         bool       `json:"isRead" gorm:"default:false;index"`
	IsAcknowledged bool       `json:"isAcknowledged" gorm:"default:false"`
	IsResolved     bool       `json:"isResolved" gorm:"default:false;index"`
	AcknowledgedBy *string    `json:"acknowledgedBy,omitempty" gorm:"type:varchar(255)"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

// Flags maps the persisted lifecycle columns into the engine representation.
func (n *AlertNotification) Flags() engine.StatusFlags {
	return engine.StatusFlags{
		IsRead:         n.IsRead,
		IsAcknowledged: n.IsAcknowledged,
		IsResolved:     n.IsResolved,
		AcknowledgedAt: n.AcknowledgedAt,
		ResolvedAt:     n.ResolvedAt,
	}
}

// ApplyFlags writes an engine lifecycle result back onto the row.
func (n *AlertNotification) ApplyFlags(f engine.StatusFlags) {
	n.IsRead = f.IsRead
	n.IsAcknowledged = f.IsAcknowledged
	n.IsResolved = f.IsResolved
	n.AcknowledgedAt = f.AcknowledgedAt
	n.ResolvedAt = f.ResolvedAt
}

// Status derives the lifecycle status for display.
func (n *AlertNotification) Status() engine.Status {
	return engine.StatusOf(n.Flags())
}

// MarshalJSON adds the derived status field to the wire form.
func (n AlertNotification) MarshalJSON() ([]byte, error) {
	type alias AlertNotification
	return json.Marshal(struct {
		alias
		Status engine.Status `json:"status"`
	}{alias(n), n.Status()})
}

// TableName implementations
func (BranchAlertSettings) TableName() string {
	return "branch_alert_settings"
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}

func (StockBatch) TableName() string {
	return "stock_batches"
}

func (AlertNotification) TableName() string {
	return "alert_notifications"
}

// Request/Response models

type SaveSettingsRequest struct {
	BranchID               string `json:"branchId" binding:"required"`
	LowStockThreshold      int    `json:"lowStockThreshold" binding:"required"`
	CriticalStockThreshold int    `json:"criticalStockThreshold" binding:"required"`
	ExpiryWarningDays      int    `json:"expiryWarningDays" binding:"required"`
	CriticalExpiryDays     int    `json:"criticalExpiryDays" binding:"required"`
}

// LifecycleAction names a status transition requested by the console.
type LifecycleAction string

const (
	LifecycleActionRead        LifecycleAction = "read"
	LifecycleActionAcknowledge LifecycleAction = "acknowledge"
	LifecycleActionResolve     LifecycleAction = "resolve"
)

type BulkLifecycleRequest struct {
	IDs    []string        `json:"ids" binding:"required,min=1,max=100"`
	Action LifecycleAction `json:"action" binding:"required"`
}

// BulkLifecycleOutcome reports the result for a single id in a bulk request.
type BulkLifecycleOutcome struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   *Error `json:"error,omitempty"`
}

type BulkLifecycleResponse struct {
	Success      bool                   `json:"success"`
	TotalCount   int                    `json:"totalCount"`
	SuccessCount int                    `json:"successCount"`
	FailedCount  int                    `json:"failedCount"`
	Results      []BulkLifecycleOutcome `json:"results"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type AlertListResponse struct {
	Success    bool                  `json:"success"`
	Data       []engine.Alert        `json:"data"`
	Counts     *engine.SeverityCount `json:"counts,omitempty"`
	Pagination *PaginationMeta       `json:"pagination,omitempty"`
}

type SummaryResponse struct {
	Success bool                  `json:"success"`
	Data    *engine.SeverityCount `json:"data,omitempty"`
}

type NotificationResponse struct {
	Success bool               `json:"success"`
	Data    *AlertNotification `json:"data,omitempty"`
	Message *string            `json:"message,omitempty"`
}

type NotificationListResponse struct {
	Success    bool                `json:"success"`
	Data       []AlertNotification `json:"data"`
	Pagination *PaginationMeta     `json:"pagination,omitempty"`
}

type SettingsResponse struct {
	Success bool                    `json:"success"`
	Data    *engine.ThresholdConfig `json:"data,omitempty"`
	Message *string                 `json:"message,omitempty"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}
