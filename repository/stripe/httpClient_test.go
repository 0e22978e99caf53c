package striperepo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func signedHeader(t *testing.T, secret string, ts int64, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newVerifier(at time.Time) *httpRepo {
	return &httpRepo{
		webhookSecret: testSecret,
		now:           func() time.Time { return at },
	}
}

func TestVerifyAndParseWebhook_Valid(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_123"}}}`)
	r := newVerifier(now)

	ev, err := r.VerifyAndParseWebhook(signedHeader(t, testSecret, now.Unix(), body), body)
	require.NoError(t, err)
	require.Equal(t, "evt_1", ev.EventID)
	require.Equal(t, "checkout.session.completed", ev.Type)
	require.Equal(t, "cs_123", ev.SessionID)
}

func TestVerifyAndParseWebhook_TamperedBody(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_123"}}}`)
	r := newVerifier(now)
	header := signedHeader(t, testSecret, now.Unix(), body)

	tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_evil"}}}`)
	_, err := r.VerifyAndParseWebhook(header, tampered)
	require.Error(t, err)
}

func TestVerifyAndParseWebhook_WrongSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"type":"checkout.session.completed"}`)
	r := newVerifier(now)

	_, err := r.VerifyAndParseWebhook(signedHeader(t, "whsec_other", now.Unix(), body), body)
	require.Error(t, err)
}

func TestVerifyAndParseWebhook_StaleTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"type":"checkout.session.completed"}`)
	r := newVerifier(now)

	old := now.Add(-signatureTolerance - time.Minute).Unix()
	_, err := r.VerifyAndParseWebhook(signedHeader(t, testSecret, old, body), body)
	require.Error(t, err)
}

func TestVerifyAndParseWebhook_MalformedHeader(t *testing.T) {
	r := newVerifier(time.Unix(1_700_000_000, 0))
	body := []byte(`{}`)

	for _, h := range []string{"", "v1=deadbeef", "t=notanumber,v1=deadbeef", "t=123"} {
		_, err := r.VerifyAndParseWebhook(h, body)
		require.Error(t, err, "header %q", h)
	}
}

func TestVerifyAndParseWebhook_BadPayload(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := newVerifier(now)

	body := []byte(`not json`)
	_, err := r.VerifyAndParseWebhook(signedHeader(t, testSecret, now.Unix(), body), body)
	require.Error(t, err)

	// Signed but missing the event type.
	body = []byte(`{"id":"evt_1"}`)
	_, err = r.VerifyAndParseWebhook(signedHeader(t, testSecret, now.Unix(), body), body)
	require.Error(t, err)
}
