// Package auth is the boundary to the external identity provider. Requests
// arrive with a JWT carrying the vetted professional identity (id, level,
// subspecialties, roles); this package validates the token and exposes the
// identity to handlers through the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workplace/workplace/internal/domain/professional"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims is the token payload issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Level          string   `json:"level"`
	Subspecialties []string `json:"subspecialties"`
	Roles          []string `json:"roles"`
}

// Identity is the authenticated professional attached to a request.
type Identity struct {
	ProfessionalID uuid.UUID
	Level          professional.Level
	Subspecialties []string
	Roles          []string
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// JWT returns middleware that validates a bearer token signed with the
// given HMAC key and binds the resulting Identity to the request context.
func JWT(signingKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id, err := identityFromClaims(claims)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevAuth returns middleware for development mode: every request runs as a
// fixed DISTINGUISHED admin professional. Never enabled outside ENV=development.
func DevAuth(devProfessionalID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := &Identity{
				ProfessionalID: devProfessionalID,
				Level:          professional.LevelDistinguished,
				Subspecialties: []string{"oncology"},
				Roles:          []string{"admin", "professional"},
			}
			ctx := context.WithValue(c.Request().Context(), identityKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func identityFromClaims(claims *Claims) (*Identity, error) {
	pid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	level, err := professional.ParseLevel(claims.Level)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ProfessionalID: pid,
		Level:          level,
		Subspecialties: claims.Subspecialties,
		Roles:          claims.Roles,
	}, nil
}

// IdentityFromContext returns the authenticated identity, or nil when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithIdentity binds an identity to a context. Used by tests.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
