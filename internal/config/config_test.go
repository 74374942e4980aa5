package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Protocol != "frc2015" {
		t.Fatalf("Protocol = %q, want frc2015", cfg.Engine.Protocol)
	}
	if cfg.Engine.EventQueueCapacity != 1024 {
		t.Fatalf("EventQueueCapacity = %d, want 1024", cfg.Engine.EventQueueCapacity)
	}
	if cfg.Debug.Port != 8200 {
		t.Fatalf("Debug.Port = %d, want 8200", cfg.Debug.Port)
	}
	if cfg.Telemetry.PublishTimeout().Milliseconds() != 200 {
		t.Fatalf("PublishTimeout = %v, want 200ms", cfg.Telemetry.PublishTimeout())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("DSENGINE_ENGINE_PROTOCOL", "frc2014")
	os.Setenv("DSENGINE_ENGINE_TEAM", "254")
	defer os.Unsetenv("DSENGINE_ENGINE_PROTOCOL")
	defer os.Unsetenv("DSENGINE_ENGINE_TEAM")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Protocol != "frc2014" {
		t.Fatalf("Protocol = %q, want frc2014", cfg.Engine.Protocol)
	}
	if cfg.Engine.Team != 254 {
		t.Fatalf("Team = %d, want 254", cfg.Engine.Team)
	}
}
