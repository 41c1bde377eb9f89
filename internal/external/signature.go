package external

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "motorent/internal/errors"
)

// Webhook payloads are authenticated with the processor's signature header:
//
//	Signature: t=<unix seconds>,v1=<hex HMAC-SHA256(secret, "<t>.<payload>")>
//
// The timestamp is part of the signed message so a captured request cannot
// be replayed outside the tolerance window.

const SignatureHeader = "Stripe-Signature"

// DefaultSignatureTolerance bounds how stale a signed timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

// SignPayload produces a signature header value for payload at ts. Used by
// tests and tooling that emit webhook deliveries.
func SignPayload(payload []byte, secret string, ts time.Time) string {
	mac := computeMAC(payload, secret, ts.Unix())
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), mac)
}

// VerifySignature checks header against payload and secret. Any failure is
// reported as ErrSignatureInvalid; the wrapped detail never includes the
// secret or the payload.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	if header == "" {
		return fmt.Errorf("%w: missing signature header", apperrors.ErrSignatureInvalid)
	}

	var ts int64 = -1
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed timestamp", apperrors.ErrSignatureInvalid)
			}
			ts = parsed
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if ts < 0 || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed signature header", apperrors.ErrSignatureInvalid)
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", apperrors.ErrSignatureInvalid)
		}
	}

	expected := computeMAC(payload, secret, ts)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching signature", apperrors.ErrSignatureInvalid)
}

func computeMAC(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
