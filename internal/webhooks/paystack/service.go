package paystackwebhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harryyking/pothole-reporter-backend/internal/subscriptions"
	"github.com/harryyking/pothole-reporter-backend/pkg/db"
	"github.com/harryyking/pothole-reporter-backend/pkg/db/models"
	"github.com/harryyking/pothole-reporter-backend/pkg/enums"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/metrics"
	"gorm.io/gorm"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	SubscriptionRepo  subscriptions.Repository
	UserRepo          userFinder
	TransactionRunner txRunner
	Metrics           *metrics.WebhookMetrics
	Logger            *logger.Logger
}

// Service applies Paystack events to the local subscription state.
type Service struct {
	subRepo  subscriptions.Repository
	userRepo userFinder
	txRunner txRunner
	metrics  *metrics.WebhookMetrics
	logger   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SubscriptionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		subRepo:  params.SubscriptionRepo,
		userRepo: params.UserRepo,
		txRunner: params.TransactionRunner,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}, nil
}

// HandleEvent routes a verified, deduplicated event to its state transition.
// Unknown event types are acknowledged without side effects so the provider
// does not retry them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	ctx = s.logger.WithEventID(ctx, event.ID)
	ctx = s.logger.WithField(ctx, "event_type", string(event.Event))

	switch event.Event {
	case EventChargeSuccess:
		return s.applyChargeSuccess(ctx, event)
	case EventSubscriptionCreate:
		// Subscription rows are created on charge.success, which carries the
		// billing terms. This event only confirms the provider-side object.
		s.logger.Info(ctx, "subscription created at provider")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	case EventSubscriptionPaymentFailed:
		return s.applyPaymentFailed(ctx, event)
	case EventSubscriptionDisable:
		return s.applyDisable(ctx, event)
	default:
		s.logger.Warn(ctx, "unhandled webhook event type")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}
}

func (s *Service) applyChargeSuccess(ctx context.Context, event *Event) error {
	subID := event.Data.ProviderSubscriptionID()
	if event.Data.Plan == nil || subID == "" {
		s.logger.Info(ctx, "charge is not tied to a subscription, skipping")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	userID, err := uuid.Parse(event.Data.Metadata.UserID)
	if err != nil {
		s.logger.Warn(ctx, "charge metadata has no usable user id, skipping")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	// Billing terms are recorded as the provider reported them; values
	// outside the known sets are kept rather than bouncing an authentic
	// charge.
	currency, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(event.Data.Plan.Currency)))
	if err != nil {
		s.logger.Warn(ctx, "unrecognized plan currency, storing as reported")
		currency = enums.Currency(strings.ToUpper(strings.TrimSpace(event.Data.Plan.Currency)))
	}
	interval, err := enums.ParseBillingInterval(strings.ToLower(strings.TrimSpace(event.Data.Plan.Interval)))
	if err != nil {
		s.logger.Warn(ctx, "unrecognized plan interval, storing as reported")
		interval = enums.BillingInterval(strings.ToLower(strings.TrimSpace(event.Data.Plan.Interval)))
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(ctx, "charge references unknown user, skipping")
			s.metrics.IncSkipped(string(event.Event))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)

		stored, err := repo.FindByUserAndProviderID(ctx, userID, subID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}

		if stored == nil {
			sub := &models.Subscription{
				UserID:                 userID,
				PaystackSubscriptionID: subID,
				PaystackPlanID:         event.Data.Plan.Identifier(),
				Amount:                 event.Data.Plan.Amount,
				Currency:               currency,
				Interval:               interval,
				Status:                 enums.SubscriptionStatusActive,
				StartDate:              time.Now().UTC(),
				NextPaymentDate:        event.Data.NextPaymentDate,
				TransactionReference:   event.Data.Reference,
			}
			if err := repo.Create(ctx, sub); err != nil {
				// Two distinct charge events can race to create the same
				// subscription; the loser lands on the unique index and
				// falls back to an update.
				if !db.IsUniqueViolation(err, "idx_subscriptions_user_provider") {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
				}
				existing, findErr := repo.FindByUserAndProviderID(ctx, userID, subID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load subscription after conflict")
				}
				existing.Status = enums.SubscriptionStatusActive
				existing.NextPaymentDate = event.Data.NextPaymentDate
				existing.TransactionReference = event.Data.Reference
				if updErr := repo.Update(ctx, existing); updErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "update subscription")
				}
			}
			return nil
		}

		// A successful charge reactivates a subscription that was marked
		// payment_failed. Billing terms stay as they were at creation.
		stored.Status = enums.SubscriptionStatusActive
		stored.NextPaymentDate = event.Data.NextPaymentDate
		stored.TransactionReference = event.Data.Reference
		if err := repo.Update(ctx, stored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "charge applied to subscription")
	s.metrics.IncProcessed(string(event.Event))
	return nil
}

func (s *Service) applyPaymentFailed(ctx context.Context, event *Event) error {
	subID := event.Data.ProviderSubscriptionID()
	if subID == "" {
		s.logger.Warn(ctx, "payment failure carries no subscription identifier, skipping")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	stored, err := s.subRepo.FindByProviderID(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(ctx, "payment failure for unknown subscription, skipping")
			s.metrics.IncSkipped(string(event.Event))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	if stored.Status.IsTerminal() {
		s.logger.Info(ctx, "subscription already cancelled, ignoring payment failure")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	stored.Status = enums.SubscriptionStatusPaymentFailed
	stored.NextPaymentDate = event.Data.NextPaymentDate
	if err := s.subRepo.Update(ctx, stored); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}

	s.logger.Info(ctx, "subscription marked payment_failed")
	s.metrics.IncProcessed(string(event.Event))
	return nil
}

func (s *Service) applyDisable(ctx context.Context, event *Event) error {
	subID := event.Data.ProviderSubscriptionID()
	if subID == "" {
		s.logger.Warn(ctx, "disable carries no subscription identifier, skipping")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	stored, err := s.subRepo.FindByProviderID(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(ctx, "disable for unknown subscription, skipping")
			s.metrics.IncSkipped(string(event.Event))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	if stored.Status.IsTerminal() {
		s.logger.Info(ctx, "subscription already cancelled")
		s.metrics.IncSkipped(string(event.Event))
		return nil
	}

	now := time.Now().UTC()
	stored.Status = enums.SubscriptionStatusCancelled
	stored.EndDate = &now
	if err := s.subRepo.Update(ctx, stored); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}

	s.logger.Info(ctx, "subscription cancelled")
	s.metrics.IncProcessed(string(event.Event))
	return nil
}
