package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidshare/backend/internal/logging"
)

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	RequestLogger(logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/video/all", nil))

	if seen == "" {
		t.Fatal("expected request id on context")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected response header %q got %q", seen, rec.Header().Get(RequestIDHeader))
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["status"] != float64(http.StatusCreated) || entry["bytes"] != float64(2) {
		t.Fatalf("unexpected completion entry: %v", entry)
	}
}

func TestRequestLoggerHonoursInboundRequestID(t *testing.T) {
	cases := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{name: "reused", inbound: "edge-123", reuse: true},
		{name: "blank", inbound: "   ", reuse: false},
		{name: "oversized", inbound: strings.Repeat("x", maxInboundRequestID+1), reuse: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(RequestIDHeader, tc.inbound)
			rec := httptest.NewRecorder()

			RequestLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(http.NotFoundHandler()).ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("expected request id header")
			}
			if (got == tc.inbound) != tc.reuse {
				t.Fatalf("inbound %q produced %q", tc.inbound, got)
			}
		})
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	RequestLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
