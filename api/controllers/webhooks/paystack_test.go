package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	paystackwebhook "github.com/harryyking/pothole-reporter-backend/internal/webhooks/paystack"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
)

const testSecret = "sk_test_webhook_secret"

type stubService struct {
	events []*paystackwebhook.Event
	err    error
}

func (s *stubService) HandleEvent(ctx context.Context, event *paystackwebhook.Event) error {
	s.events = append(s.events, event)
	return s.err
}

type stubGuard struct {
	duplicate bool
	checkErr  error
	deleted   []string
}

func (g *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g.checkErr != nil {
		return false, g.checkErr
	}
	return g.duplicate, nil
}

func (g *stubGuard) Delete(ctx context.Context, eventID string) error {
	g.deleted = append(g.deleted, eventID)
	return nil
}

type stubClient struct {
	secret string
}

func (c stubClient) SigningSecret() string { return c.secret }

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func validBody() []byte {
	return []byte(`{"id":"evt_1","event":"subscription.create","data":{"subscription_code":"SUB_abc"}}`)
}

func newHandler(svc *stubService, guard *stubGuard, secret string) http.HandlerFunc {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return PaystackWebhook(svc, stubClient{secret: secret}, guard, logg, nil)
}

func postWebhook(handler http.HandlerFunc, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestPaystackWebhookProcessesValidEvent(t *testing.T) {
	svc := &stubService{}
	guard := &stubGuard{}
	handler := newHandler(svc, guard, testSecret)

	body := validBody()
	rec := postWebhook(handler, body, sign(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected one handled event, got %d", len(svc.events))
	}
	if svc.events[0].ID != "evt_1" {
		t.Errorf("unexpected event id: %s", svc.events[0].ID)
	}
}

func TestPaystackWebhookRejectsMissingSignature(t *testing.T) {
	svc := &stubService{}
	handler := newHandler(svc, &stubGuard{}, testSecret)

	rec := postWebhook(handler, validBody(), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run without a signature")
	}
}

func TestPaystackWebhookRejectsInvalidSignature(t *testing.T) {
	svc := &stubService{}
	handler := newHandler(svc, &stubGuard{}, testSecret)

	body := validBody()
	rec := postWebhook(handler, body, sign(body, "sk_test_wrong_secret"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run on a bad signature")
	}
}

func TestPaystackWebhookRejectsTamperedBody(t *testing.T) {
	svc := &stubService{}
	handler := newHandler(svc, &stubGuard{}, testSecret)

	signature := sign(validBody(), testSecret)
	tampered := []byte(`{"id":"evt_1","event":"subscription.disable","data":{"subscription_code":"SUB_abc"}}`)
	rec := postWebhook(handler, tampered, signature)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run on a tampered body")
	}
}

func TestPaystackWebhookRejectsMalformedPayload(t *testing.T) {
	svc := &stubService{}
	handler := newHandler(svc, &stubGuard{}, testSecret)

	body := []byte(`{"event": "charge.success"`)
	rec := postWebhook(handler, body, sign(body, testSecret))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run on a malformed payload")
	}
}

func TestPaystackWebhookAcknowledgesDuplicates(t *testing.T) {
	svc := &stubService{}
	guard := &stubGuard{duplicate: true}
	handler := newHandler(svc, guard, testSecret)

	body := validBody()
	rec := postWebhook(handler, body, sign(body, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicates must be acknowledged, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run for duplicates")
	}
}

func TestPaystackWebhookSurfacesGuardFailure(t *testing.T) {
	svc := &stubService{}
	guard := &stubGuard{checkErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection reset"), "record event marker")}
	handler := newHandler(svc, guard, testSecret)

	body := validBody()
	rec := postWebhook(handler, body, sign(body, testSecret))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("guard failures must be retryable, got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("service must not run when the guard fails")
	}
}

func TestPaystackWebhookReleasesMarkerOnServiceFailure(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	guard := &stubGuard{}
	handler := newHandler(svc, guard, testSecret)

	body := validBody()
	rec := postWebhook(handler, body, sign(body, testSecret))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt_1" {
		t.Fatalf("marker must be released on failure, deleted=%v", guard.deleted)
	}
}
