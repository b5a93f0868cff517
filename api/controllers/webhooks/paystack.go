package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/harryyking/pothole-reporter-backend/api/responses"
	paystackwebhook "github.com/harryyking/pothole-reporter-backend/internal/webhooks/paystack"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
	"github.com/harryyking/pothole-reporter-backend/pkg/metrics"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "X-Paystack-Signature"

const maxBodyBytes = 1 << 20

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, event *paystackwebhook.Event) error
}

type paystackWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type paystackClient interface {
	SigningSecret() string
}

// PaystackWebhook verifies, deduplicates and applies Paystack events.
// Response codes steer the provider's retry behavior: 2xx acknowledges, 4xx
// tells it the delivery is unprocessable, 5xx asks it to retry later.
func PaystackWebhook(svc PaystackWebhookService, client paystackClient, guard paystackWebhookGuard, logg *logger.Logger, m *metrics.WebhookMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(SignatureHeader)
		if sigHeader == "" {
			m.IncRejected("signature_missing")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signature header missing"))
			return
		}

		// The signature covers the raw bytes as delivered, so verification
		// happens before any decoding touches the payload.
		if !validPaystackSignature(payload, client.SigningSecret(), sigHeader) {
			m.IncRejected("signature_invalid")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature"))
			return
		}

		event, err := paystackwebhook.ParseEvent(payload)
		if err != nil {
			m.IncRejected("malformed_payload")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ctx = logg.WithEventID(ctx, event.ID)

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if alreadyProcessed {
			m.IncDuplicate()
			logg.Info(ctx, "duplicate delivery acknowledged")
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			// Release the claim so the provider's retry is not swallowed by
			// the dedup fence.
			if delErr := guard.Delete(ctx, event.ID); delErr != nil {
				logg.Error(ctx, "failed to release event marker", delErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func validPaystackSignature(payload []byte, secret, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
