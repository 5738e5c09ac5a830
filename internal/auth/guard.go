package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "inkwell/internal/errors"
	"inkwell/internal/model"
)

const claimsContextKey = "auth.claims"

var (
	errInvalidToken = errors.New("invalid token")
	errTokenRevoked = errors.New("token revoked")
)

// Guard authenticates bearer tokens and authorizes access to posts.
//
// A missing or malformed Authorization header yields 401; a token that fails
// verification, a role outside the allowed set or a foreign post yield 403.
type Guard struct {
	jwt    *JWTService
	tokens TokenStoreInterface
}

// NewGuard creates a guard backed by the JWT service and revocation store.
func NewGuard(jwt *JWTService, tokens TokenStoreInterface) *Guard {
	return &Guard{jwt: jwt, tokens: tokens}
}

// Authenticate extracts and verifies the bearer token and stores its claims
// in the request context.
func (g *Guard) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := g.jwt.ValidateToken(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
			}
			if g.tokens != nil {
				revoked, _ := g.tokens.IsRevoked(c.Request().Context(), claims.ID)
				if revoked {
					return nil, fmt.Errorf("%w: %w", errInvalidToken, errTokenRevoked)
				}
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var parseErr *echojwt.TokenParsingError
			if errors.Is(err, errInvalidToken) || errors.As(err, &parseErr) {
				return apperrors.ErrForbidden
			}
			return apperrors.ErrUnauthorized
		},
	})
}

// RequireRole rejects authenticated callers whose role is not in roles.
// It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return apperrors.ErrUnauthorized
			}
			if !claims.HasRole(roles...) {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// CanAccessPost decides whether the caller may read or change a post owned
// by authorID. Admins may act on any post, authors only on their own.
func CanAccessPost(claims *Claims, authorID uuid.UUID) error {
	if claims == nil {
		return apperrors.ErrUnauthorized
	}
	switch claims.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleAuthor:
		if claims.UserID == authorID.String() {
			return nil
		}
	}
	return apperrors.ErrForbidden
}
