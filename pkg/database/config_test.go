package database_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/cadence/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "cadence", User: "cadence"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Host != "localhost" {
		t.Errorf("host: got %s, want localhost", cfg.Host)
	}
	if cfg.Port != 5432 {
		t.Errorf("port: got %d, want 5432", cfg.Port)
	}
	if cfg.ApplicationName != "cadence" {
		t.Errorf("application_name: got %s, want cadence", cfg.ApplicationName)
	}
	if cfg.ConnTimeoutDuration().String() != "5s" {
		t.Errorf("conn_timeout: got %s, want 5s", cfg.ConnTimeoutDuration())
	}
}

func TestFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_PORT_BAD", "x")

	cfg := database.Config{Name: "cadence", User: "cadence"}
	env := &database.Env{Host: "TEST_DB_HOST", Port: "TEST_DB_PORT"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Host != "db.internal" {
		t.Errorf("host: got %s, want db.internal", cfg.Host)
	}
	if cfg.Port != 6543 {
		t.Errorf("port: got %d, want 6543", cfg.Port)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{"missing name", database.Config{User: "u"}},
		{"missing user", database.Config{Name: "n"}},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "soon"}},
		{"idle exceeds open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "a", Port: 1, Name: "base"}
	base.Merge(&database.Config{Host: "b", MaxOpenConns: 9})

	if base.Host != "b" {
		t.Errorf("host: got %s, want b", base.Host)
	}
	if base.Port != 1 {
		t.Errorf("port: got %d, want 1", base.Port)
	}
	if base.Name != "base" {
		t.Errorf("name: got %s, want base", base.Name)
	}
	if base.MaxOpenConns != 9 {
		t.Errorf("max_open_conns: got %d, want 9", base.MaxOpenConns)
	}
}

func TestURL(t *testing.T) {
	cfg := database.Config{Name: "cadence", User: "grader", Password: "p@ss word"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	u, err := url.Parse(cfg.URL())
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	if u.Scheme != "postgres" {
		t.Errorf("scheme: got %s, want postgres", u.Scheme)
	}
	if pw, _ := u.User.Password(); pw != "p@ss word" {
		t.Errorf("password: got %q, want %q", pw, "p@ss word")
	}
	if u.Path != "/cadence" {
		t.Errorf("path: got %s, want /cadence", u.Path)
	}
	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Errorf("sslmode: got %s, want disable", got)
	}
}
