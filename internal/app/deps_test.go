package app

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Ping(context.Context) error { return nil }

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		MaxUploadBytes: 1 << 20,
		Session:        config.SessionConfig{Secret: "secret", CookieName: "token", CookieSecure: true},
		ObjectStore: config.ObjectStoreConfig{
			Bucket:          "test-bucket",
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		},
	}

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Health == nil {
		t.Fatal("expected health probe to be configured")
	}
	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media gateway to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session codec to be configured")
	}
	if deps.Cookie.Name != "token" || !deps.Cookie.Secure {
		t.Fatalf("unexpected cookie settings: %+v", deps.Cookie)
	}
	if deps.MaxUploadBytes != 1<<20 {
		t.Fatalf("unexpected upload limit %d", deps.MaxUploadBytes)
	}
}

func TestBuildDependenciesRequiresBucket(t *testing.T) {
	cfg := config.Config{Session: config.SessionConfig{Secret: "secret"}}

	if _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range cases {
		if got := parseLogLevel(in).String(); got != want {
			t.Fatalf("parseLogLevel(%q) = %s want %s", in, got, want)
		}
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without command")
	}
	if err := Run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
