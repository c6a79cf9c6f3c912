package event

import (
	"database/sql"
	"time"
)

// MaxDescriptionLength bounds the denormalized description column.
const MaxDescriptionLength = 500

// Event represents one accepted webhook delivery. The ledger is append-only:
// rows are never updated or deleted, and delivery_id is the sole dedup key.
type Event struct {
	ID          uint   `gorm:"primaryKey"`
	DeliveryID  string `gorm:"uniqueIndex;size:128;not null"`
	EventType   string `gorm:"index;size:64;not null"`
	Action      string `gorm:"size:64"`
	Title       string `gorm:"size:512"`
	Description string `gorm:"type:text"`
	URL         string `gorm:"size:1024"`
	Actor       string `gorm:"size:128"`
	RawPayload  string `gorm:"type:text"`
	ExternalRef sql.NullString `gorm:"size:128"`
	ReceivedAt  time.Time      `gorm:"index"`
}

func (Event) TableName() string {
	return "ledger_events"
}

// LastEvent describes the most recently accepted delivery.
type LastEvent struct {
	EventType  string    `json:"event_type"`
	Action     string    `json:"action"`
	ReceivedAt time.Time `json:"received_at"`
}

// Summary is the derived per-tenant projection pushed to live subscribers.
// It is recomputed from the ledger after every accepted delivery and is
// never authoritative on its own.
type Summary struct {
	TenantKey  string     `json:"tenant_key"`
	EventCount int64      `json:"event_count"`
	LastEvent  *LastEvent `json:"last_event,omitempty"`
}

// Truncate bounds s to max characters. Truncation operates on runes so a
// multi-byte payload never gets split mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
