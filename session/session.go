// Package session issues and verifies the signed browser session cookie.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const idCtxKey = ctxKey("sessionID")

// Manager signs session ids with an HMAC secret.
type Manager struct {
	secret     []byte
	cookieName string
	secure     bool
	maxAge     time.Duration
}

// NewManager returns a Manager. The cookie lives for maxAge after the last
// request.
func NewManager(secret, cookieName string, secure bool, maxAge time.Duration) *Manager {
	if cookieName == "" {
		cookieName = "session"
	}
	return &Manager{secret: []byte(secret), cookieName: cookieName, secure: secure, maxAge: maxAge}
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Set writes a signed cookie carrying id.
func (m *Manager) Set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.maxAge.Seconds()),
	})
}

// Parse validates the cookie and returns the session id.
func (m *Manager) Parse(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// WithID stores the session id in context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idCtxKey, id)
}

// IDFromContext extracts the session id.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idCtxKey).(string)
	return id, ok && id != ""
}

// Middleware attaches the session id to the request context, starting a new
// session when the cookie is missing or forged. The cookie is refreshed on
// every request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.Parse(r)
		if !ok {
			id = uuid.NewString()
		}
		m.Set(w, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
