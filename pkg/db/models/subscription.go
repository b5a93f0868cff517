package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harryyking/pothole-reporter-backend/pkg/enums"
)

// Subscription is the local mirror of a Paystack subscription. Billing terms
// (plan, amount, currency, interval) are fixed at creation; only status,
// next_payment_date, end_date and transaction_reference move afterwards.
// Rows are never deleted, only transitioned to cancelled.
type Subscription struct {
	ID                     uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                 uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_subscriptions_user_provider"`
	PaystackSubscriptionID string                   `gorm:"column:paystack_subscription_id;not null;unique;uniqueIndex:idx_subscriptions_user_provider"`
	PaystackPlanID         string                   `gorm:"column:paystack_plan_id;not null"`
	Amount                 int64                    `gorm:"column:amount;not null"`
	Currency               enums.Currency           `gorm:"column:currency;not null"`
	Interval               enums.BillingInterval    `gorm:"column:interval;not null"`
	Status                 enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	StartDate              time.Time                `gorm:"column:start_date;not null"`
	NextPaymentDate        *time.Time               `gorm:"column:next_payment_date"`
	EndDate                *time.Time               `gorm:"column:end_date"`
	TransactionReference   string                   `gorm:"column:transaction_reference"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
