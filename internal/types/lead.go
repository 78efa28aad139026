package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LeadOpen   = "open"
	LeadClosed = "closed"
)

// Lead is a booking-in-progress record scoped to one (park, session).
// Slots fill incrementally across turns; empty slots are nil.
type Lead struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID               uuid.UUID      `gorm:"type:uuid;not null;index:idx_lead_park_session" json:"park_id"`
	SessionID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_lead_park_session" json:"session_id"`
	Status               string         `gorm:"column:status;not null;default:'open'" json:"status"`
	Intent               *string        `gorm:"column:intent" json:"intent,omitempty"`
	ClientPhone          *string        `gorm:"column:client_phone" json:"client_phone,omitempty"`
	ClientName           *string        `gorm:"column:client_name" json:"client_name,omitempty"`
	EventDate            *time.Time     `gorm:"column:event_date;type:date" json:"event_date,omitempty"`
	EventTime            *string        `gorm:"column:event_time" json:"event_time,omitempty"`
	DayOfWeek            *int           `gorm:"column:day_of_week" json:"day_of_week,omitempty"`
	KidsCount            *int           `gorm:"column:kids_count" json:"kids_count,omitempty"`
	KidsAgeMain          *int           `gorm:"column:kids_age_main" json:"kids_age_main,omitempty"`
	AdultsCount          *int           `gorm:"column:adults_count" json:"adults_count,omitempty"`
	ConversationSummary  *string        `gorm:"column:conversation_summary" json:"conversation_summary,omitempty"`
	ConversationJSON     datatypes.JSON `gorm:"column:conversation_json;type:jsonb" json:"conversation_json"`
	MissingRequiredSlots datatypes.JSON `gorm:"column:missing_required_slots;type:jsonb" json:"missing_required_slots"`
	AdminMessage         *string        `gorm:"column:admin_message" json:"admin_message,omitempty"`
	AdminNotifiedHash    *string        `gorm:"column:admin_notified_hash" json:"admin_notified_hash,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Lead) TableName() string { return "lead" }

// ConversationTurn is one transcript entry; text is stored phone-masked.
type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
