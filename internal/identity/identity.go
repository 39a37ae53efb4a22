// Package identity resolves the calling caregiver from identity-provider tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ashureev/neurosync/internal/config"
	"github.com/ashureev/neurosync/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DevHeaderName carries the caregiver id when token verification is disabled.
	DevHeaderName  = "X-Caregiver-ID"
	// DevCaregiverID is used in dev mode when no caregiver id is supplied.
	DevCaregiverID = "dev-caregiver"

	tokenQueryParam = "token"
)

type contextKey int

const caregiverIDKey contextKey = 0

var caregiverIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,128}$`)

var errUnauthorized = errors.New("unauthorized")

// CaregiverStore is the persistence the middleware needs to materialize callers.
type CaregiverStore interface {
	GetCaregiver(ctx context.Context, caregiverID string) (*domain.Caregiver, error)
	UpsertCaregiver(ctx context.Context, c *domain.Caregiver) error
}

// Claims are the identity-provider token claims the service reads.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// CaregiverIDFromContext extracts the caregiver ID from the request context.
func CaregiverIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(caregiverIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCaregiverID returns a context carrying caregiverID.
func WithCaregiverID(ctx context.Context, caregiverID string) context.Context {
	return context.WithValue(ctx, caregiverIDKey, caregiverID)
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a token verifier. An empty secret yields nil, meaning dev mode.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	if cfg.JWTSecret == "" {
		return nil
	}
	return &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify parses token and returns its claims. The subject is the caregiver id.
func (v *Verifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errUnauthorized
	}
	if !caregiverIDPattern.MatchString(claims.Subject) {
		return nil, fmt.Errorf("invalid subject: %w", errUnauthorized)
	}
	return claims, nil
}

// Sign issues a token for caregiverID. It is used by tooling and tests.
func (v *Verifier) Sign(caregiverID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caregiverID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// Browsers cannot set headers on websocket upgrades.
	return r.URL.Query().Get(tokenQueryParam)
}

func devCaregiverID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(DevHeaderName))
	if id == "" {
		id = r.URL.Query().Get("caregiver_id")
	}
	if id == "" || !caregiverIDPattern.MatchString(id) {
		return DevCaregiverID
	}
	return id
}

func ensureCaregiver(ctx context.Context, repo CaregiverStore, caregiverID, name string) error {
	c, err := repo.GetCaregiver(ctx, caregiverID)
	if err != nil {
		return err
	}
	if c != nil {
		return nil
	}
	if name == "" {
		name = caregiverID
	}
	return repo.UpsertCaregiver(ctx, &domain.Caregiver{
		CaregiverID: caregiverID,
		Name:        name,
		Role:        domain.RoleCaregiver,
	})
}

// Middleware resolves the caller and injects the caregiver id into the request
// context. With a nil verifier the caller is taken from the dev header.
func Middleware(repo CaregiverStore, v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var caregiverID, name string
			if v == nil {
				caregiverID = devCaregiverID(r)
			} else {
				claims, err := v.Verify(bearerToken(r))
				if err != nil {
					slog.Debug("Token rejected", "error", err, "ip", IPFromRequest(r))
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
					return
				}
				caregiverID, name = claims.Subject, claims.Name
			}

			if err := ensureCaregiver(r.Context(), repo, caregiverID, name); err != nil {
				slog.Error("Failed to initialize caregiver", "caregiver_id", caregiverID, "error", err)
				http.Error(w, `{"error":"failed to initialize caregiver"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaregiverID(r.Context(), caregiverID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for rate limiting and tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
