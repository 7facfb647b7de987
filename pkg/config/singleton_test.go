package config

import (
	"sync"
	"testing"
)

func resetGlobal() {
	globalConfig = nil
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetGlobal()

	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:5050"
`)

	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:5050" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:5050", cfg.Server.ListenAddress)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal()

	first := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:5001\"\n")
	second := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:5002\"\n")

	if err := Initialize(first); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	Initialize(second)

	if got := GetConfig().Server.ListenAddress; got != "127.0.0.1:5001" {
		t.Errorf("second Initialize call should be ignored, got %q", got)
	}
}

func TestGetConfig_BeforeInitialize(t *testing.T) {
	resetGlobal()

	if cfg := GetConfig(); cfg != nil {
		t.Error("expected nil config before initialization")
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobal()

	SetConfig(NewTestConfig().WithListenAddress("192.168.1.1:7070").Build())

	if got := GetConfig().Server.ListenAddress; got != "192.168.1.1:7070" {
		t.Errorf("expected listen address %q, got %q", "192.168.1.1:7070", got)
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal()
	SetConfig(MinimalConfig())

	configPath := writeConfig(t, `
telemetry:
  logging:
    level: "warn"
`)

	if err := ReloadConfig(configPath); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if got := GetConfig().Telemetry.Logging.Level; got != "warn" {
		t.Errorf("expected logging level %q, got %q", "warn", got)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	resetGlobal()
	original := MinimalConfig()
	SetConfig(original)

	configPath := writeConfig(t, `
snapshot:
  backend: "s3"
`)

	if err := ReloadConfig(configPath); err == nil {
		t.Fatal("expected reload to fail")
	}
	if GetConfig() != original {
		t.Error("expected original config to be kept after failed reload")
	}
}

func TestMustGetConfig(t *testing.T) {
	resetGlobal()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustGetConfig to panic before initialization")
		}
	}()
	MustGetConfig()
}

func TestMustGetConfig_AfterSet(t *testing.T) {
	resetGlobal()
	SetConfig(MinimalConfig())

	if cfg := MustGetConfig(); cfg == nil {
		t.Error("expected non-nil config from MustGetConfig")
	}
}
