package messenger

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // X-Hub-Signature is defined as HMAC-SHA1 by the platform.
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"strings"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

// Signature headers sent with every webhook POST.
const (
	HeaderSignature    = "X-Hub-Signature"     // sha1=<hex>
	HeaderSignature256 = "X-Hub-Signature-256" // sha256=<hex>
)

// VerifyRequest checks the HMAC signature of body against the request headers.
// The SHA-256 header is preferred when present. A missing header is a mismatch.
func VerifyRequest(secret string, header http.Header, body []byte) error {
	if sig := header.Get(HeaderSignature256); sig != "" {
		return VerifySignature(secret, body, sig)
	}
	return VerifySignature(secret, body, header.Get(HeaderSignature))
}

// VerifySignature validates a "<method>=<hex>" signature of body computed
// with secret. Supported methods are sha1 and sha256. Comparison is constant-time.
func VerifySignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", domerrors.ErrSignatureMismatch)
	}

	method, digest, ok := strings.Cut(signature, "=")
	if !ok {
		return fmt.Errorf("%w: malformed signature", domerrors.ErrSignatureMismatch)
	}

	var newHash func() hash.Hash
	switch strings.ToLower(method) {
	case "sha1":
		newHash = sha1.New
	case "sha256":
		newHash = sha256.New
	default:
		return fmt.Errorf("%w: unsupported method %q", domerrors.ErrSignatureMismatch, method)
	}

	expected, err := hex.DecodeString(digest)
	if err != nil {
		return fmt.Errorf("%w: malformed digest", domerrors.ErrSignatureMismatch)
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return domerrors.ErrSignatureMismatch
	}
	return nil
}

// Sign returns the "sha1=<hex>" signature of body. Useful for tests and tooling.
func Sign(secret string, body []byte) string {
	return sign("sha1", sha1.New, secret, body)
}

// Sign256 returns the "sha256=<hex>" signature of body. Useful for tests and tooling.
func Sign256(secret string, body []byte) string {
	return sign("sha256", sha256.New, secret, body)
}

func sign(method string, newHash func() hash.Hash, secret string, body []byte) string {
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return method + "=" + hex.EncodeToString(mac.Sum(nil))
}
