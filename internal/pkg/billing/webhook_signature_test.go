package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test_secret"

func signPayload(t *testing.T, secret string, ts time.Time, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	t.Parallel()

	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)

	tests := []struct {
		name   string
		header string
		secret string
		want   bool
	}{
		{"valid signature", signPayload(t, testSecret, now, payload), testSecret, true},
		{"wrong secret", signPayload(t, "whsec_other", now, payload), testSecret, false},
		{"stale timestamp", signPayload(t, testSecret, now.Add(-10*time.Minute), payload), testSecret, false},
		{"future timestamp", signPayload(t, testSecret, now.Add(10*time.Minute), payload), testSecret, false},
		{"within tolerance", signPayload(t, testSecret, now.Add(-4*time.Minute), payload), testSecret, true},
		{"empty header", "", testSecret, false},
		{"empty secret", signPayload(t, testSecret, now, payload), "", false},
		{"missing v1", fmt.Sprintf("t=%d", now.Unix()), testSecret, false},
		{"missing timestamp", "v1=deadbeef", testSecret, false},
		{"garbage timestamp", "t=abc,v1=deadbeef", testSecret, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := VerifyStripeWebhookSignature(payload, tc.header, tc.secret, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestVerifyAcceptsAnyValidCandidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	payload := []byte(`{"id":"evt_2"}`)
	valid := signPayload(t, testSecret, now, payload)

	// A rotated-secret header carries multiple v1 entries; one match suffices.
	header := valid + ",v1=" + hex.EncodeToString(make([]byte, 32))
	assert.True(t, VerifyStripeWebhookSignature(payload, header, testSecret, now))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	now := time.Now()
	payload := []byte(`{"id":"evt_3","amount":100}`)
	header := signPayload(t, testSecret, now, payload)

	tampered := []byte(`{"id":"evt_3","amount":999}`)
	assert.False(t, VerifyStripeWebhookSignature(tampered, header, testSecret, now))
}
