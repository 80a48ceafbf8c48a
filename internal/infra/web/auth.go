package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"content-commerce/internal/domain"
)

const adminRole = "admin"

// ===== Admin session primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	APIKey       []byte
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
}

// AuthManager exchanges the admin API key for a short-lived signed session.
type AuthManager struct {
	cfg AuthConfig
	now func() time.Time
}

func NewAuthManager(apiKey, secret string, secure bool, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{
		cfg: AuthConfig{
			HMACSecret:   []byte(secret),
			APIKey:       []byte(apiKey),
			CookieName:   "admin_session",
			SecureCookie: secure,
			TTL:          ttl,
		},
		now: time.Now,
	}
}

// Enabled is false when either secret is missing; admin routes then refuse everyone.
func (a *AuthManager) Enabled() bool {
	return len(a.cfg.APIKey) > 0 && len(a.cfg.HMACSecret) > 0
}

func (a *AuthManager) CheckAPIKey(key string) bool {
	if !a.Enabled() || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), a.cfg.APIKey) == 1
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs a session token and sets it as an HttpOnly cookie.
func (a *AuthManager) Mint(w http.ResponseWriter, subject string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.cfg.TTL)
	claims := AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   subject,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	http.SetCookie(w, a.cookie(signed, int(a.cfg.TTL.Seconds())))
	return signed, exp, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, a.cookie("", -1))
}

func (a *AuthManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    value,
		Path:     "/api/v1/admin",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

// ParseFromRequest accepts "Authorization: Bearer <jwt>" or the session cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if tok, ok := cutPrefixFold(hdr, "bearer "); ok {
			return a.parse(strings.TrimSpace(tok))
		}
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tkn.Valid || claims.Role != adminRole {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// RequireAdmin guards the admin API.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			s.log.Error().Msg("Admin credentials are not configured")
			writeError(w, r, s.log, domain.ErrForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, r, s.log, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
