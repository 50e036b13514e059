package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signature header names.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
)

// Sign computes the hex HMAC-SHA256 of "<unix timestamp>.<payload>".
func Sign(secret string, payload []byte, ts time.Time) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(h, "%d.%s", ts.Unix(), payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SetSignature adds signature headers for payload to h.
func SetSignature(h http.Header, secret string, payload []byte, ts time.Time) {
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, Sign(secret, payload, ts))
}

// VerifySignature checks the signature headers of a received webhook.
// A positive maxAge rejects signatures older than maxAge.
func VerifySignature(secret string, payload []byte, h http.Header, maxAge time.Duration) error {
	sig := h.Get(HeaderSignature)
	if sig == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, HeaderSignature)
	}
	unix, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	ts := time.Unix(unix, 0)
	if maxAge > 0 && time.Since(ts) > maxAge {
		return fmt.Errorf("%w: signature expired", ErrInvalidSignature)
	}
	if !hmac.Equal([]byte(Sign(secret, payload, ts)), []byte(sig)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}
