package cryptopaywebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// signatureHeaders are checked in order; the first non-empty one wins.
var signatureHeaders = []string{"X-Signature", "X-Cryptobot-Signature"}

// SignaturePolicy decides whether a webhook request is authentic. The policy
// is swappable so the signing scheme can change without touching handlers.
type SignaturePolicy interface {
	Verify(header http.Header, body []byte) bool
}

// HMACSHA256Policy authenticates requests by comparing the hex-encoded
// HMAC-SHA256 of the raw body against the signature header.
type HMACSHA256Policy struct {
	secret []byte
}

// NewHMACSHA256Policy builds the policy. An empty secret never verifies:
// unauthenticated operation has to be a deliberate choice elsewhere, not a
// misconfiguration here.
func NewHMACSHA256Policy(secret string) *HMACSHA256Policy {
	return &HMACSHA256Policy{secret: []byte(secret)}
}

// Verify recomputes the body digest and compares it in constant time.
func (p *HMACSHA256Policy) Verify(header http.Header, body []byte) bool {
	if len(p.secret) == 0 {
		return false
	}

	var presented string
	for _, name := range signatureHeaders {
		if value := header.Get(name); value != "" {
			presented = value
			break
		}
	}
	if presented == "" {
		return false
	}

	decoded, err := hex.DecodeString(presented)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}
