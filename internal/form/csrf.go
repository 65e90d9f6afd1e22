// internal/form/csrf.go
//
// Orderform – Forms subsystem: stateless CSRF tokens.
//
// Context
//   Every rendered form embeds a hidden `csrf_token`; the event and picture
//   endpoints receive the same token in the X-CSRF-Token header.  Tokens are
//   stateless so they survive a session eviction:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   Verification checks the signature and that the timestamp lies within
//   MaxAge.  The key comes from ORDERFORM_CSRF_KEY (base64url, ≥ 32 bytes);
//   without it a random key is generated, which invalidates open pages on
//   restart.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size

	// MaxAge bounds how long a rendered page may be submitted.
	MaxAge = 2 * time.Hour

	// CSRFKeyEnv names the environment variable holding the key.
	CSRFKeyEnv = "ORDERFORM_CSRF_KEY"

	// CSRFHeader carries the token on script-driven requests.
	CSRFHeader = "X-CSRF-Token"

	csrfField = "csrf_token"
)

// ErrBadToken is returned when a request carries no valid CSRF token.
var ErrBadToken = errors.New("form: missing or invalid CSRF token")

// CSRF issues and checks tokens for one key.
type CSRF struct {
	key []byte
	now func() time.Time
}

// NewCSRF panics when key is shorter than 32 bytes.
func NewCSRF(key []byte) *CSRF {
	if len(key) < 32 {
		panic("form: CSRF key must be at least 32 bytes")
	}
	return &CSRF{key: key, now: time.Now}
}

// Token creates a fresh token.  Call once per render.
func (c *CSRF) Token() (string, error) {
	buf := make([]byte, nonceBytes+8, tokenBytes)
	if _, err := rand.Read(buf[:nonceBytes]); err != nil {
		return "", err
	}
	binary.BigEndian.PutUint64(buf[nonceBytes:], uint64(c.now().UnixMicro()))
	buf = append(buf, c.sign(buf)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok passes the HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	body, sig := raw[:nonceBytes+8], raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(body[nonceBytes:])))
	now := c.now()
	if now.Sub(issued) > MaxAge || issued.Sub(now) > time.Minute {
		return false
	}
	return hmac.Equal(sig, c.sign(body))
}

// VerifyRequest checks the header first, then the posted csrf_token field.
// The caller must have parsed the body already when relying on the field.
func (c *CSRF) VerifyRequest(r *http.Request) error {
	tok := r.Header.Get(CSRFHeader)
	if tok == "" {
		tok = r.PostFormValue(csrfField)
	}
	if tok == "" || !c.Verify(tok) {
		return ErrBadToken
	}
	return nil
}

func (c *CSRF) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(body)
	return mac.Sum(nil)
}

// -----------------------------------------------------------------------------
// Process-wide default
// -----------------------------------------------------------------------------

var (
	defaultOnce sync.Once
	defaultCSRF *CSRF
)

// DefaultCSRF returns the process-wide instance keyed from ORDERFORM_CSRF_KEY.
func DefaultCSRF() *CSRF {
	defaultOnce.Do(func() {
		if env := os.Getenv(CSRFKeyEnv); env != "" {
			if b, err := base64.RawURLEncoding.DecodeString(env); err == nil && len(b) >= 32 {
				defaultCSRF = NewCSRF(b)
				return
			}
			zap.S().Warnw("ignoring malformed CSRF key", "env", CSRFKeyEnv)
		}
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		zap.S().Warnw("CSRF key not set, using an ephemeral key", "env", CSRFKeyEnv)
		defaultCSRF = NewCSRF(key)
	})
	return defaultCSRF
}
