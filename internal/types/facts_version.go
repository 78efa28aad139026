package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FactsVersionDraft     = "draft"
	FactsVersionPublished = "published"
)

// FactsVersion is an immutable, fully-resolved snapshot of a park's facts.
// Rows are inserted by publish and never mutated afterwards.
type FactsVersion struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"park_id"`
	Status       string         `gorm:"column:status;not null;default:'draft'" json:"status"`
	SnapshotJSON datatypes.JSON `gorm:"column:snapshot_json;type:jsonb" json:"snapshot_json"`
	PublishedAt  *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
	PublishedBy  *string        `gorm:"column:published_by" json:"published_by,omitempty"`
	Notes        *string        `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (FactsVersion) TableName() string { return "facts_version" }

// ParkPublishedState is the per-park pointer to the currently active
// FactsVersion. Exactly one row per park; moved by publish and rollback.
type ParkPublishedState struct {
	ParkID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"park_id"`
	PublishedVersionID uuid.UUID `gorm:"type:uuid;not null" json:"published_version_id"`
	UpdatedAt          time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ParkPublishedState) TableName() string { return "park_published_state" }
