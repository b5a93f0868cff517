package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harryyking/pothole-reporter-backend/pkg/config"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
)

func TestNewClient_ValidatesKeyEnvPairs(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.PaystackConfig
		wantErr bool
	}{
		{"test key in test env", config.PaystackConfig{SecretKey: "sk_test_abc", Env: "test"}, false},
		{"live key in live env", config.PaystackConfig{SecretKey: "sk_live_abc", Env: "live"}, false},
		{"live key in test env", config.PaystackConfig{SecretKey: "sk_live_abc", Env: "test"}, true},
		{"test key in live env", config.PaystackConfig{SecretKey: "sk_test_abc", Env: "live"}, true},
		{"missing key", config.PaystackConfig{Env: "test"}, true},
		{"bogus env", config.PaystackConfig{SecretKey: "sk_test_abc", Env: "staging"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_SigningSecretPrefersWebhookSecret(t *testing.T) {
	client, err := NewClient(context.Background(), config.PaystackConfig{
		SecretKey:     "sk_test_abc",
		WebhookSecret: "whsec_1",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.SigningSecret(); got != "whsec_1" {
		t.Fatalf("unexpected signing secret %q", got)
	}
}

func TestFetchSubscription_DecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscription/SUB_x1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Subscription retrieved",
			"data": {
				"subscription_code": "SUB_x1",
				"status": "active",
				"amount": 5000,
				"next_payment_date": "2024-06-01T00:00:00Z"
			}
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	sub, err := client.FetchSubscription(context.Background(), "SUB_x1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != "active" {
		t.Fatalf("unexpected status %q", sub.Status)
	}
	if sub.Amount != 5000 {
		t.Fatalf("unexpected amount %d", sub.Amount)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if sub.NextPaymentDate == nil || !sub.NextPaymentDate.Equal(want) {
		t.Fatalf("unexpected next payment date %v", sub.NextPaymentDate)
	}
}

func TestFetchSubscription_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status": false, "message": "Subscription not found"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.FetchSubscription(context.Background(), "SUB_missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFetchSubscription_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.FetchSubscription(context.Background(), "SUB_x1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestFetchSubscription_EmptyCode(t *testing.T) {
	client := testClient(t, "http://unused")
	_, err := client.FetchSubscription(context.Background(), " ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.PaystackConfig{SecretKey: "sk_test_abc"}, nil)
	if err != nil {
		t.Fatalf("setup client: %v", err)
	}
	client.baseURL = baseURL
	return client
}
