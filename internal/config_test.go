package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.AI.Provider != ProviderLocal {
		t.Errorf("provider = %q, want %q", cfg.AI.Provider, ProviderLocal)
	}
	if cfg.AI.MaxContextNotes != 5 {
		t.Errorf("max context notes = %d, want 5", cfg.AI.MaxContextNotes)
	}
}

func TestHTTPConfig_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 should fail validation")
	}
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 70000 should fail validation")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestAIConfig_EmptyProviderDefaultsLocal(t *testing.T) {
	cfg := AIConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty provider should default to local: %v", err)
	}
	if cfg.Provider != ProviderLocal {
		t.Errorf("provider = %q, want %q", cfg.Provider, ProviderLocal)
	}
}

func TestAIConfig_InvalidProvider(t *testing.T) {
	cfg := AIConfig{Provider: "anthropic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider should fail validation")
	}
}

func TestAIConfig_TemperatureRange(t *testing.T) {
	cfg := AIConfig{Provider: ProviderLocal, Temperature: 2.5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("temperature above 2 should fail validation")
	}
}

func TestImportConfig_WatchWithoutPath(t *testing.T) {
	cfg := ImportConfig{Watch: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("watch without path should fail validation")
	}
}

func TestImportConfig_Enabled(t *testing.T) {
	cfg := ImportConfig{}
	if cfg.Enabled() {
		t.Error("empty path should be disabled")
	}
	cfg.Path = "./notes"
	if !cfg.Enabled() {
		t.Error("configured path should be enabled")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
