package types

import (
	"time"

	"github.com/google/uuid"
)

type ParkContact struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID    uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	Type      string    `gorm:"column:type;not null" json:"type"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ParkContact) TableName() string { return "park_contact" }

type ParkLocation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	AddressText string    `gorm:"column:address_text;not null" json:"address_text"`
	City        *string   `gorm:"column:city" json:"city,omitempty"`
	Lat         *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Lon         *float64  `gorm:"column:lon" json:"lon,omitempty"`
}

func (ParkLocation) TableName() string { return "park_location" }

// OpeningHour stores open/close as HH:MM strings; validation keeps them
// well-formed before any write.
type OpeningHour struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID    uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	Dow       int       `gorm:"column:dow;not null" json:"dow"`
	OpenTime  *string   `gorm:"column:open_time" json:"open_time,omitempty"`
	CloseTime *string   `gorm:"column:close_time" json:"close_time,omitempty"`
	IsClosed  bool      `gorm:"column:is_closed;not null;default:false" json:"is_closed"`
	Note      *string   `gorm:"column:note" json:"note,omitempty"`
}

func (OpeningHour) TableName() string { return "park_opening_hour" }

type TransportNote struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	Kind   string    `gorm:"column:kind;not null" json:"kind"`
	Text   string    `gorm:"column:text;not null" json:"text"`
}

func (TransportNote) TableName() string { return "park_transport" }

type SitePage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      uuid.UUID `gorm:"type:uuid;not null;index:idx_site_page_park_key,unique" json:"park_id"`
	Key         string    `gorm:"column:key;not null;index:idx_site_page_park_key,unique" json:"key"`
	Path        *string   `gorm:"column:path" json:"path,omitempty"`
	AbsoluteURL *string   `gorm:"column:absolute_url" json:"absolute_url,omitempty"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SitePage) TableName() string { return "site_page" }

type LegalDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID      uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	Key         string    `gorm:"column:key;not null" json:"key"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Path        *string   `gorm:"column:path" json:"path,omitempty"`
	AbsoluteURL *string   `gorm:"column:absolute_url" json:"absolute_url,omitempty"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LegalDocument) TableName() string { return "legal_document" }

type Promotion struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"park_id"`
	Key       string     `gorm:"column:key;not null" json:"key"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Text      string     `gorm:"column:text;not null" json:"text"`
	ValidFrom *time.Time `gorm:"column:valid_from" json:"valid_from,omitempty"`
	ValidTo   *time.Time `gorm:"column:valid_to" json:"valid_to,omitempty"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Promotion) TableName() string { return "promotion" }

type FAQEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParkID    uuid.UUID `gorm:"type:uuid;not null;index" json:"park_id"`
	Question  string    `gorm:"column:question;not null" json:"question"`
	Answer    string    `gorm:"column:answer;not null" json:"answer"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (FAQEntry) TableName() string { return "faq_entry" }
