package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"10.0.0.0/8", []string{"10.0.0.0/8"}},
		{" 149.154.160.0/20 , '91.108.4.0/22' ,, ", []string{"149.154.160.0/20", "91.108.4.0/22"}},
	}

	for _, tt := range tests {
		if got := splitAndTrim(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func resetSource(t *testing.T) {
	t.Helper()
	env = newSource()
	t.Cleanup(func() { env = newSource() })
}

func TestLoad(t *testing.T) {
	resetSource(t)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BOT_NAME", "@AnimeListBot")
	t.Setenv("WALLPAPER_TOKEN", "wp")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("WEBHOOK_PATH", "hook")
	t.Setenv("ALLOWED_CIDRS", "149.154.160.0/20,91.108.4.0/22")

	cfg := Load()

	if cfg.BotName != "AnimeListBot" {
		t.Errorf("BotName = %q, want %q", cfg.BotName, "AnimeListBot")
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want %q", cfg.ListenPort, ":8080")
	}
	if cfg.WebhookPath != "/hook" {
		t.Errorf("WebhookPath = %q, want %q", cfg.WebhookPath, "/hook")
	}
	if cfg.SearchLimit != 15 {
		t.Errorf("SearchLimit = %d, want 15", cfg.SearchLimit)
	}
	if cfg.SessionBackend != BackendMemory {
		t.Errorf("SessionBackend = %q, want %q", cfg.SessionBackend, BackendMemory)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v, want 2 entries", cfg.AllowedCIDRS)
	}
	if cfg.ChatBurst != 20 || cfg.ChatRefill != 60 {
		t.Errorf("chat rate = %d/%d, want 20/60", cfg.ChatBurst, cfg.ChatRefill)
	}
	if cfg.TextsReloadSchedule != "@every 5m" {
		t.Errorf("TextsReloadSchedule = %q, want %q", cfg.TextsReloadSchedule, "@every 5m")
	}
}

func TestLoadDotEnv(t *testing.T) {
	resetSource(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "BOT_TOKEN=from-file\nBOT_NAME=filebot\nWALLPAPER_TOKEN=wp\nSESSION_BACKEND=bolt\nBOT_PORT=9090\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("BOT_NAME", "envbot")

	cfg := Load()

	if cfg.BotToken != "from-file" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "from-file")
	}
	if cfg.BotName != "envbot" {
		t.Errorf("BotName = %q, process env should win over the file", cfg.BotName)
	}
	if cfg.ListenPort != ":9090" {
		t.Errorf("ListenPort = %q, want %q", cfg.ListenPort, ":9090")
	}
	if cfg.SessionBackend != BackendBolt {
		t.Errorf("SessionBackend = %q, want %q", cfg.SessionBackend, BackendBolt)
	}
}

func TestLoadFatal(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing bot token",
			env:  map[string]string{"BOT_NAME": "b", "WALLPAPER_TOKEN": "w", "SESSION_BACKEND": "memory"},
		},
		{
			name: "redis backend without address",
			env:  map[string]string{"BOT_TOKEN": "t", "BOT_NAME": "b", "WALLPAPER_TOKEN": "w", "SESSION_BACKEND": "redis"},
		},
		{
			name: "unknown backend",
			env:  map[string]string{"BOT_TOKEN": "t", "BOT_NAME": "b", "WALLPAPER_TOKEN": "w", "SESSION_BACKEND": "mongo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetSource(t)
			t.Setenv("ENV_FILE", "")
			for _, key := range []string{"BOT_TOKEN", "BOT_NAME", "WALLPAPER_TOKEN", "REDIS_ADDR"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}
