package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChangeLog is the append-only admin audit trail. The chat path never
// reads it.
type ChangeLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      *uuid.UUID     `gorm:"type:uuid;index" json:"park_id,omitempty"`
	Actor       string         `gorm:"column:actor;not null" json:"actor"`
	EntityTable string         `gorm:"column:entity_table;not null" json:"entity_table"`
	Action      string         `gorm:"column:action;not null" json:"action"`
	BeforeJSON  datatypes.JSON `gorm:"column:before_json;type:jsonb" json:"before_json"`
	AfterJSON   datatypes.JSON `gorm:"column:after_json;type:jsonb" json:"after_json"`
	Reason      *string        `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ChangeLog) TableName() string { return "change_log" }

type EventLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraceID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"trace_id"`
	SessionID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	UserID         *string        `gorm:"column:user_id" json:"user_id,omitempty"`
	ParkID         *uuid.UUID     `gorm:"type:uuid;index" json:"park_id,omitempty"`
	ParkSlug       *string        `gorm:"column:park_slug" json:"park_slug,omitempty"`
	Channel        *string        `gorm:"column:channel" json:"channel,omitempty"`
	EventName      string         `gorm:"column:event_name;not null;index" json:"event_name"`
	FactsVersionID *uuid.UUID     `gorm:"type:uuid" json:"facts_version_id,omitempty"`
	Payload        datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (EventLog) TableName() string { return "event_log" }
