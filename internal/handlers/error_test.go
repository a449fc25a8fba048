package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newErrorEcho(includeDetails bool) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(nil, includeDetails)
	e.GET("/classified", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "missing field").SetInternal(errors.New("inner detail"))
	})
	e.GET("/unclassified", func(c echo.Context) error {
		return errors.New("database exploded")
	})
	return e
}

func getError(t *testing.T, e *echo.Echo, path string) (int, ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	return rec.Code, body
}

func TestErrorHandlerProductionMode(t *testing.T) {
	t.Parallel()
	e := newErrorEcho(false)

	code, body := getError(t, e, "/classified")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body.Status != http.StatusBadRequest || body.Message != "missing field" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Cause != "" || body.Stack != "" {
		t.Fatal("production responses must not leak cause or stack")
	}
}

func TestErrorHandlerUnclassifiedDefaultsTo500(t *testing.T) {
	t.Parallel()
	e := newErrorEcho(false)

	code, body := getError(t, e, "/unclassified")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status in body: %d", body.Status)
	}
	if body.Message != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("unclassified errors must not leak their message, got %q", body.Message)
	}
}

func TestErrorHandlerDevelopmentMode(t *testing.T) {
	t.Parallel()
	e := newErrorEcho(true)

	_, body := getError(t, e, "/classified")
	if body.Cause != "inner detail" {
		t.Fatalf("expected cause in dev mode, got %q", body.Cause)
	}
	if body.Stack == "" {
		t.Fatal("expected stack in dev mode")
	}

	_, body = getError(t, e, "/unclassified")
	if body.Cause != "database exploded" {
		t.Fatalf("expected underlying cause, got %q", body.Cause)
	}
}
