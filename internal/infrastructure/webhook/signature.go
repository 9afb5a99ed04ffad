package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/returnsdesk/backend/internal/domain/shared"
)

// SignatureHeader carries the base64 HMAC digest of the raw request body
const SignatureHeader = "X-Returns-Hmac-Sha256"

// SignatureValidator authenticates inbound return events. It computes an
// HMAC-SHA256 digest over the raw body with the shared secret and compares
// it to the supplied header in constant time. Fails closed: missing header,
// bad encoding, or mismatch are all invalid, never valid by default.
type SignatureValidator struct {
	secret []byte
}

// NewSignatureValidator creates a validator for the given shared secret
func NewSignatureValidator(secret string) *SignatureValidator {
	return &SignatureValidator{secret: []byte(secret)}
}

// Validate checks the signature against the raw body. It has no side effects.
func (v *SignatureValidator) Validate(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return shared.ErrInvalidSignature
	}
	if signature == "" {
		return shared.ErrInvalidSignature
	}

	supplied, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return shared.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(expected, supplied) {
		return shared.ErrInvalidSignature
	}
	return nil
}

// Sign computes the base64 HMAC digest for a body. Used by tests and by
// outbound callers that need to produce a valid header.
func (v *SignatureValidator) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
