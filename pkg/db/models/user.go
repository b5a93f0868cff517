package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the application identity a subscription belongs to. Account
// creation happens in the OAuth flow outside this service; the reconciler
// only reads these rows to resolve webhook metadata.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GoogleID  string    `gorm:"column:google_id;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"type:text;not null;uniqueIndex"`
	Image     *string   `gorm:"column:image"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
