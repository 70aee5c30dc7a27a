package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"canvasgrab/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestCaptureLoggerRecordsEntries(t *testing.T) {
	log := NewCaptureLogger()

	log.Info("started")
	log.WarnWithFields("slow page", map[string]interface{}{"url": "/courses/1"})
	log.Error("failed")

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Message != "started" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Fields["url"] != "/courses/1" {
		t.Errorf("fields not recorded: %+v", entries[1])
	}

	if got := log.EntriesAt("ERROR"); len(got) != 1 || got[0].Message != "failed" {
		t.Errorf("EntriesAt(ERROR) = %+v", got)
	}
	if !log.HasMessageContaining("slow") {
		t.Error("HasMessageContaining should match a substring")
	}
	if log.HasMessageContaining("never logged") {
		t.Error("HasMessageContaining matched a message that was never logged")
	}
}

func TestCaptureLoggerDerivedFieldsShareRecorder(t *testing.T) {
	log := NewCaptureLogger()

	derived := log.WithField("course", "BIO101").WithError(errors.New("timeout"))
	derived.Warn("surface failed")

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("derived logger must record into the parent, got %d entries", len(entries))
	}
	if entries[0].Fields["course"] != "BIO101" {
		t.Errorf("derived field missing: %+v", entries[0].Fields)
	}
	if entries[0].Fields["error"] != "timeout" {
		t.Errorf("error field missing: %+v", entries[0].Fields)
	}

	// the parent keeps no fields of its own
	log.Info("plain")
	if fields := log.Entries()[1].Fields; len(fields) != 0 {
		t.Errorf("parent logger gained fields: %+v", fields)
	}
}

func TestCaptureLoggerWithErrorNil(t *testing.T) {
	log := NewCaptureLogger()
	log.WithError(nil).Info("fine")

	if fields := log.Entries()[0].Fields; len(fields) != 0 {
		t.Errorf("nil error must not add a field, got %+v", fields)
	}
}
