package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of console actions: lifecycle
// transitions and settings saves. Never updated or deleted.
type AuditLog struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	ActorID  string    `json:"actorId" gorm:"type:varchar(255);not null;index"`

	Action     string `json:"action" gorm:"type:varchar(50);not null;index"`
	EntityType string `json:"entityType" gorm:"type:varchar(50);not null"`
	EntityID   string `json:"entityId" gorm:"type:varchar(100);not null;index"`
	Details    *JSON  `json:"details,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditLogListResponse struct {
	Success    bool            `json:"success"`
	Data       []AuditLog      `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
