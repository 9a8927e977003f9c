package config

import (
	"testing"

	"github.com/maelh/locmat/internal/model"
)

func TestParseStatusesDefault(t *testing.T) {
	statuses, err := parseStatuses("")
	if err != nil {
		t.Fatalf("parseStatuses: %v", err)
	}
	if len(statuses) != len(model.DefaultActiveStatuses) {
		t.Errorf("expected default set, got %v", statuses)
	}
}

func TestParseStatuses(t *testing.T) {
	statuses, err := parseStatuses("ongoing, planned")
	if err != nil {
		t.Fatalf("parseStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[0] != model.StatusOngoing || statuses[1] != model.StatusPlanned {
		t.Errorf("unexpected statuses: %v", statuses)
	}
}

func TestParseStatusesRejectsUnknown(t *testing.T) {
	if _, err := parseStatuses("planned,bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOCMAT_ADDR", ":9999")
	t.Setenv("LOCMAT_ACTIVE_STATUSES", "ongoing")
	t.Setenv("LOCMAT_NOTIFY_DEBOUNCE", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %q", cfg.Addr)
	}
	if len(cfg.ActiveStatuses) != 1 || cfg.ActiveStatuses[0] != model.StatusOngoing {
		t.Errorf("unexpected active statuses: %v", cfg.ActiveStatuses)
	}
	if cfg.NotifyDebounce.Milliseconds() != 500 {
		t.Errorf("unexpected debounce: %v", cfg.NotifyDebounce)
	}
}
