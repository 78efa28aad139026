package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	KBSourceTypeURL  = "url"
	KBSourceTypeFile = "file_path"
	KBSourceTypePDF  = "pdf"
)

type KBSource struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"park_id"`
	Enabled       bool       `gorm:"column:enabled;not null;default:true" json:"enabled"`
	SourceType    string     `gorm:"column:source_type;not null" json:"source_type"`
	SourceURL     *string    `gorm:"column:source_url" json:"source_url,omitempty"`
	FilePath      *string    `gorm:"column:file_path" json:"file_path,omitempty"`
	Title         *string    `gorm:"column:title" json:"title,omitempty"`
	ContentType   *string    `gorm:"column:content_type" json:"content_type,omitempty"`
	LastHash      *string    `gorm:"column:last_hash" json:"last_hash,omitempty"`
	LastFetchedAt *time.Time `gorm:"column:last_fetched_at" json:"last_fetched_at,omitempty"`
	ExpiresAt     *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (KBSource) TableName() string { return "kb_source" }

const (
	KBJobQueued  = "queued"
	KBJobRunning = "running"
	KBJobSuccess = "success"
	KBJobFailed  = "failed"
)

// KBIndexJob is one reindex attempt. A partial unique index on
// (park_id) WHERE status IN ('queued','running') enforces single-flight
// per park at the storage level.
type KBIndexJob struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"park_id"`
	Status      string         `gorm:"column:status;not null;default:'queued'" json:"status"`
	TriggeredBy *string        `gorm:"column:triggered_by" json:"triggered_by,omitempty"`
	Reason      *string        `gorm:"column:reason" json:"reason,omitempty"`
	SourcesJSON datatypes.JSON `gorm:"column:sources_json;type:jsonb" json:"sources_json"`
	StatsJSON   datatypes.JSON `gorm:"column:stats_json;type:jsonb" json:"stats_json"`
	ErrorText   *string        `gorm:"column:error_text" json:"error_text,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	StartedAt   *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (KBIndexJob) TableName() string { return "kb_index_job" }

type KBIndex struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"park_id"`
	Label       string     `gorm:"column:label;not null" json:"label"`
	Status      string     `gorm:"column:status;not null;default:'building'" json:"status"`
	ActivatedAt *time.Time `gorm:"column:activated_at" json:"activated_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (KBIndex) TableName() string { return "kb_index" }
