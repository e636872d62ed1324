package config

import (
	"testing"
	"time"
)

func TestParseBackend(t *testing.T) {
	cases := map[string]string{
		"memory":   BackendMemory,
		" Memory ": BackendMemory,
		"postgres": BackendPostgres,
		"":         BackendPostgres,
		"bogus":    BackendPostgres,
	}
	for input, want := range cases {
		if got := parseBackend(input); got != want {
			t.Fatalf("parseBackend(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a , ,http://b")
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("unexpected split result: %v", got)
	}
}

func TestGetDSNPrefersExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://explicit", Host: "ignored"}
	if got := cfg.GetDSN(); got != "postgres://explicit" {
		t.Fatalf("expected explicit DSN, got %q", got)
	}
}

func TestGetDSNFromParts(t *testing.T) {
	cfg := DBConfig{
		Host: "db", Port: "5432", User: "u", Password: "p",
		Name: "mess", SSLMode: "disable", TimeZone: "UTC",
	}
	want := "host=db user=u password=p dbname=mess port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.GetDSN(); got != want {
		t.Fatalf("GetDSN() = %q, want %q", got, want)
	}
}

func TestGetEnvDurationFallback(t *testing.T) {
	t.Setenv("TEST_TTL", "not-a-duration")
	if got := getEnvDuration("TEST_TTL", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("TEST_TTL", "90s")
	if got := getEnvDuration("TEST_TTL", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
