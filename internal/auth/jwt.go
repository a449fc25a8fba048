package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// contextKey is the echo context key the JWT middleware stores the parsed
// token under.
const contextKey = "user"

// Claims is the verified access-token payload. The subject is the user id;
// x_permission_level carries the capability bitmask.
type Claims struct {
	GivenName       string `json:"given_name,omitempty"`
	FamilyName      string `json:"family_name,omitempty"`
	Email           string `json:"email,omitempty"`
	PermissionLevel int    `json:"x_permission_level"`
	jwt.RegisteredClaims
}

// Level returns the permission level carried by the claims.
func (c *Claims) Level() Level {
	return Level(c.PermissionLevel)
}

// JWTMiddleware returns the bearer-token verification middleware. Every
// failure mode (missing header, malformed header, bad signature, expired
// token) yields 401 so no information about the token leaks.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:    skipper,
		ContextKey: contextKey,
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "access token is missing or invalid").SetInternal(err)
		},
	})
}

// ClaimsFromContext extracts the verified claims attached by JWTMiddleware.
func ClaimsFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "access token is missing or invalid")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "access token is missing or invalid")
	}
	return claims, nil
}

// RequirePermission returns middleware that rejects the request with 403
// unless the authenticated user's level grants the given capability.
// Must run after JWTMiddleware.
func RequirePermission(p Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return err
			}
			if !claims.Level().Grants(p) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// GenerateToken signs an access token for the given user. Used by the dev
// token command and tests; production tokens come from the external auth
// service that shares the signing secret.
func GenerateToken(subject, givenName, familyName, email string, level Level, secret string, expiresIn time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := &Claims{
		GivenName:       givenName,
		FamilyName:      familyName,
		Email:           email,
		PermissionLevel: int(level),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
