package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedEvent is the durable dedup fence for webhook deliveries. One row
// per accepted provider event id; the unique index makes concurrent inserts
// of the same id race-safe.
type ProcessedEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID   string    `gorm:"column:event_id;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
