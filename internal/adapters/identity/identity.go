// Package identity resolves the actor stamped on mutations from configuration or a bearer token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hylla/sudsboard/internal/app"
)

// ErrUnauthenticated reports a missing or rejected credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Static always reports one configured actor id.
type Static struct {
	ID string
}

var _ app.ActorProvider = Static{}

// ActorID returns the configured id.
func (s Static) ActorID(context.Context) (string, error) {
	return strings.TrimSpace(s.ID), nil
}

// claims is the token payload. Only the subject is required.
type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// JWT verifies and issues HS256 bearer tokens whose subject is the actor id.
type JWT struct {
	secret []byte
	now    func() time.Time
}

// NewJWT constructs a verifier for secret.
func NewJWT(secret string) (*JWT, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWT{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses token and returns the actor it names.
func (j *JWT) Verify(token string) (app.Actor, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	parsed := &claims{}
	tok, err := parser.ParseWithClaims(token, parsed, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return app.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !tok.Valid {
		return app.Actor{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return app.Actor{}, fmt.Errorf("%w: subject claim required", ErrUnauthenticated)
	}
	return app.Actor{ID: subject, Type: app.ActorTypeUser}, nil
}

// Issue signs a token for subject valid for ttl. A non-positive ttl never expires.
func (j *JWT) Issue(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := j.now()
	registered := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   "sudsboard",
	}
	if ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{RegisteredClaims: registered}).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// ActorHeader carries an unauthenticated actor id for trusted local callers.
const ActorHeader = "X-Actor-ID"

// FromRequest resolves the caller from a bearer token or the actor header.
// A present but unusable Authorization header is an error; no identity at all reports false.
func FromRequest(r *http.Request, verifier *JWT, headerType app.ActorType) (app.Actor, bool, error) {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		token, ok := BearerToken(authz)
		if !ok {
			return app.Actor{}, false, fmt.Errorf("%w: unsupported authorization scheme", ErrUnauthenticated)
		}
		if verifier == nil {
			return app.Actor{}, false, fmt.Errorf("%w: bearer tokens are not enabled", ErrUnauthenticated)
		}
		actor, err := verifier.Verify(token)
		if err != nil {
			return app.Actor{}, false, err
		}
		return actor, true, nil
	}
	if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
		return app.Actor{ID: id, Type: headerType}, true, nil
	}
	return app.Actor{}, false, nil
}
