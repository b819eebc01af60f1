package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}

	home, err := homedir.Dir()
	if err != nil {
		t.Fatalf("homedir.Dir() error = %v", err)
	}
	if want := filepath.Join(home, ".recall", "chats.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if strings.HasPrefix(cfg.LogPath, "~") {
		t.Errorf("LogPath = %q, want expanded path", cfg.LogPath)
	}
	if cfg.PreviewMinDisplay != 50*time.Millisecond {
		t.Errorf("PreviewMinDisplay = %s, want 50ms", cfg.PreviewMinDisplay)
	}
	if !cfg.Sidebar {
		t.Error("Sidebar should default to true")
	}
	if cfg.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q, want gpt-3.5-turbo", cfg.Model)
	}
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDBPath, "/data/chats.db")
	v.Set(KeyPreviewMinDisplay, "200ms")
	v.Set(KeySidebar, false)

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}
	if cfg.DBPath != "/data/chats.db" {
		t.Errorf("DBPath = %q, want /data/chats.db", cfg.DBPath)
	}
	if cfg.PreviewMinDisplay != 200*time.Millisecond {
		t.Errorf("PreviewMinDisplay = %s, want 200ms", cfg.PreviewMinDisplay)
	}
	if cfg.Sidebar {
		t.Error("Sidebar should be false")
	}
}

func TestFromViperRejectsNegativeMinDisplay(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyPreviewMinDisplay, "-1s")

	if _, err := FromViper(v); err == nil {
		t.Error("expected error for negative preview_min_display")
	}
}

func TestNewReadsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromViper(New())
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.APIKey)
	}
}
