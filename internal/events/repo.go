package events

import (
	"context"

	"github.com/harryyking/pothole-reporter-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository records which provider events have already been applied. The
// unique index on event_id makes InsertIfAbsent the authoritative dedup fence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an events repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertIfAbsent attempts to record the event ID. It returns true when this
// call inserted the row, false when another delivery already claimed it.
// Concurrent calls for the same ID resolve at the unique index, so at most
// one caller observes true.
func (r *Repository) InsertIfAbsent(ctx context.Context, eventID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&models.ProcessedEvent{EventID: eventID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the marker so a provider retry can reprocess the event.
func (r *Repository) Remove(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.ProcessedEvent{}).Error
}
