package imagestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCreate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/images" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("PRIVATE-TOKEN") != "service-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc123","imageUrl":"https://images.example.com/abc123","contentType":"image/png"}`))
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	resource, err := client.Create(context.Background(), CreateRequest{Data: "aGVsbG8=", ContentType: "image/png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resource.ID != "abc123" {
		t.Errorf("id = %q, want abc123", resource.ID)
	}
	if resource.ImageURL != "https://images.example.com/abc123" {
		t.Errorf("unexpected image url %q", resource.ImageURL)
	}
}

func TestClientCreateUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	_, err := client.Create(context.Background(), CreateRequest{Data: "aGVsbG8=", ContentType: "image/png"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClientCreateMissingID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	if _, err := client.Create(context.Background(), CreateRequest{Data: "aGVsbG8=", ContentType: "image/png"}); err == nil {
		t.Fatal("expected error for response without id")
	}
}

func TestClientUpdate(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	if err := client.Update(context.Background(), "abc123", CreateRequest{Data: "aGVsbG8=", ContentType: "image/gif"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/images/abc123" {
		t.Errorf("got %s %s, want PUT /images/abc123", gotMethod, gotPath)
	}
}

func TestClientDelete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/images/abc123" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Content-Type") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	if err := client.Delete(context.Background(), "abc123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestClientDeleteUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, "service-secret", 0)
	if err := client.Delete(context.Background(), "abc123"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
