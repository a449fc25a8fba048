package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func newEchoWithAuth(t *testing.T, required Permission) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(JWTMiddleware(testSecret, nil))
	e.GET("/protected", func(c echo.Context) error {
		claims, err := ClaimsFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"sub": claims.Subject})
	}, RequirePermission(required))
	return e
}

func doRequest(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	t.Parallel()
	rec := doRequest(newEchoWithAuth(t, PermissionRead), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTMiddlewareMalformedHeader(t *testing.T) {
	t.Parallel()
	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "garbage"} {
		rec := doRequest(newEchoWithAuth(t, PermissionRead), header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestJWTMiddlewareBadSignature(t *testing.T) {
	t.Parallel()
	token, _, err := GenerateToken("user-1", "Jane", "Doe", "jane@example.com", 1, "wrong-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	rec := doRequest(newEchoWithAuth(t, PermissionRead), "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	t.Parallel()
	token, _, err := GenerateToken("user-1", "Jane", "Doe", "jane@example.com", 1, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	rec := doRequest(newEchoWithAuth(t, PermissionRead), "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePermissionForbidden(t *testing.T) {
	t.Parallel()
	// READ-only token hitting a DELETE-gated route.
	token, _, err := GenerateToken("user-1", "Jane", "Doe", "jane@example.com", Level(PermissionRead), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	rec := doRequest(newEchoWithAuth(t, PermissionDelete), "Bearer "+token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermissionAllowed(t *testing.T) {
	t.Parallel()
	token, _, err := GenerateToken("user-1", "Jane", "Doe", "jane@example.com", 15, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	rec := doRequest(newEchoWithAuth(t, PermissionDelete), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	t.Parallel()
	token, expiresAt, err := GenerateToken("user-42", "Jane", "Doe", "jane@example.com", 7, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired")
	}

	parsed, err := jwt.ParseWithClaims(token, new(Claims), func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.Subject != "user-42" {
		t.Errorf("subject = %q, want user-42", claims.Subject)
	}
	if claims.PermissionLevel != 7 {
		t.Errorf("permission level = %d, want 7", claims.PermissionLevel)
	}
	if claims.Email != "jane@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.ID == "" {
		t.Error("expected a jti claim")
	}
}
