package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec = httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected method not allowed got %d", rec.Code)
	}
}

func TestHealthHandlerProbesDatabase(t *testing.T) {
	cases := []struct {
		name     string
		ping     error
		status   int
		database string
	}{
		{name: "reachable", status: http.StatusOK, database: "ok"},
		{name: "unreachable", ping: errors.New("connection refused"), status: http.StatusServiceUnavailable, database: "unreachable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var deadline bool
			handler := HealthHandler{Database: pingerFunc(func(ctx context.Context) error {
				_, deadline = ctx.Deadline()
				return tc.ping
			})}

			rec := httptest.NewRecorder()
			handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if !deadline {
				t.Fatal("expected ping to run with a deadline")
			}
			var body healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Database != tc.database {
				t.Fatalf("expected database %q got %q", tc.database, body.Database)
			}
		})
	}
}
