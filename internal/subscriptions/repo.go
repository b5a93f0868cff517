package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harryyking/pothole-reporter-backend/pkg/db/models"
	"github.com/harryyking/pothole-reporter-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes subscription persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindByUserAndProviderID(ctx context.Context, userID uuid.UUID, providerID string) (*models.Subscription, error)
	FindByProviderID(ctx context.Context, providerID string) (*models.Subscription, error)
	ListForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscriptions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a copy of the repository bound to the supplied transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *repository) FindByUserAndProviderID(ctx context.Context, userID uuid.UUID, providerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND paystack_subscription_id = ?", userID, providerID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("paystack_subscription_id = ?", providerID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListForReconciliation returns non-cancelled subscriptions that have not been
// touched within the lookback window, oldest first.
func (r *repository) ListForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	var subs []models.Subscription
	cutoff := time.Now().UTC().Add(-lookback)
	err := r.db.WithContext(ctx).
		Where("status <> ?", enums.SubscriptionStatusCancelled).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
