package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login attempt", "name", "Smiths", "password", "secret1", "Token", "abc.def.ghi")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["name"] != "Smiths" {
		t.Errorf("name = %v, want Smiths", fields["name"])
	}
	if fields["password"] != "[REDACTED]" {
		t.Errorf("password = %v, want redacted", fields["password"])
	}
	if fields["Token"] != "[REDACTED]" {
		t.Errorf("Token = %v, want redacted", fields["Token"])
	}
}

func TestSanitizeKeepsDanglingKey(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Errorf("sanitizeKVs() = %v", got)
	}
}
