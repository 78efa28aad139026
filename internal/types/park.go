package types

import (
	"time"

	"github.com/google/uuid"
)

type Park struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug            string     `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	BaseURL         string     `gorm:"column:base_url;not null" json:"base_url"`
	ActiveKBIndexID *uuid.UUID `gorm:"column:active_kb_index_id;type:uuid" json:"active_kb_index_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Park) TableName() string { return "park" }
