package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/db"
)

const (
	sessionCookieName = "yogadesk_session"
	sessionTokenBytes = 32
	defaultSessionTTL = 12 * time.Hour
)

var errInvalidCookie = errors.New("invalid session cookie")

// SessionStore persists sessions by token hash. *db.Queries satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, s db.Session) error
	GetSession(ctx context.Context, tokenHash string, now time.Time) (db.Session, error)
	ExtendSession(ctx context.Context, tokenHash string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) error
}

type ManagerConfig struct {
	// Secret signs session cookies. Empty generates a per-process secret.
	Secret string
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

// Manager issues and resolves server-side operator sessions. The cookie holds
// a random token plus its HMAC; only the token's SHA-256 is stored.
type Manager struct {
	store  SessionStore
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store SessionStore, cfg ManagerConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session manager requires a store")
	}
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn().Msg("APP_SECRET_KEY not set; sessions will not survive a restart")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		store:  store,
		secret: secret,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    cfg.Now,
	}, nil
}

// Create stores a new session for username and sets the cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, username string) (*authz.Operator, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	hash := hashToken(token)
	err = m.store.CreateSession(ctx, db.Session{
		TokenHash: hash,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return nil, err
	}
	m.setCookie(w, token+"."+m.sign(token), now.Add(m.ttl))
	return &authz.Operator{Username: username, SessionID: hash}, nil
}

// OperatorFromRequest returns the operator for a valid session cookie, nil
// when there is no usable session. Sessions slide: once less than half the
// TTL remains the expiry is pushed out again.
func (m *Manager) OperatorFromRequest(w http.ResponseWriter, r *http.Request) (*authz.Operator, error) {
	token, err := m.tokenFromRequest(r)
	if err != nil {
		m.ClearCookie(w)
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	now := m.now()
	hash := hashToken(token)
	session, err := m.store.GetSession(r.Context(), hash, now)
	if errors.Is(err, db.ErrSessionNotFound) {
		m.ClearCookie(w)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if session.ExpiresAt.Sub(now) < m.ttl/2 {
		expiresAt := now.Add(m.ttl)
		if err := m.store.ExtendSession(r.Context(), hash, expiresAt); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to extend session")
		} else {
			m.setCookie(w, token+"."+m.sign(token), expiresAt)
		}
	}
	return &authz.Operator{Username: session.Username, SessionID: hash}, nil
}

// Destroy deletes the request's session and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	defer m.ClearCookie(w)
	token, err := m.tokenFromRequest(r)
	if err != nil || token == "" {
		return nil
	}
	return m.store.DeleteSession(r.Context(), hashToken(token))
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(m.ttl.Seconds()),
	})
}

// tokenFromRequest returns "" without error when no cookie is present.
func (m *Manager) tokenFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", nil
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", nil
	}

	token, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || token == "" {
		return "", errInvalidCookie
	}
	if !hmac.Equal([]byte(signature), []byte(m.sign(token))) {
		return "", fmt.Errorf("%w: bad signature", errInvalidCookie)
	}
	return token, nil
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(token), nil
}
