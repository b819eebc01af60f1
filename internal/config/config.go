package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	KeyDBPath            = "db_path"
	KeyLogPath           = "log_path"
	KeyModel             = "model"
	KeyAPIKey            = "openai_api_key"
	KeyPreviewMinDisplay = "preview_min_display"
	KeySidebar           = "sidebar"
	KeyDebug             = "debug"
)

// Config holds the resolved application settings
type Config struct {
	DBPath            string
	LogPath           string
	Model             string
	APIKey            string
	PreviewMinDisplay time.Duration
	Sidebar           bool
	Debug             bool
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDBPath, "~/.recall/chats.db")
	v.SetDefault(KeyLogPath, "~/.recall/recall.log")
	v.SetDefault(KeyModel, "gpt-3.5-turbo")
	v.SetDefault(KeyPreviewMinDisplay, 50*time.Millisecond)
	v.SetDefault(KeySidebar, true)
	v.SetDefault(KeyDebug, false)
}

// New returns a viper instance reading ~/.recall/config.yaml, ./.recall.yaml
// and RECALL_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath("$HOME/.recall")
	v.AddConfigPath(".")
	v.SetEnvPrefix("RECALL")
	v.AutomaticEnv()
	// The assistant key is conventionally unprefixed.
	_ = v.BindEnv(KeyAPIKey, "RECALL_OPENAI_API_KEY", "OPENAI_API_KEY")
	return v
}

// Load reads the config file, if any, and resolves all settings from v
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper resolves settings without touching the filesystem
func FromViper(v *viper.Viper) (*Config, error) {
	dbPath, err := homedir.Expand(v.GetString(KeyDBPath))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyDBPath, err)
	}
	logPath, err := homedir.Expand(v.GetString(KeyLogPath))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogPath, err)
	}
	minDisplay := v.GetDuration(KeyPreviewMinDisplay)
	if minDisplay < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %s", KeyPreviewMinDisplay, minDisplay)
	}

	return &Config{
		DBPath:            dbPath,
		LogPath:           logPath,
		Model:             v.GetString(KeyModel),
		APIKey:            v.GetString(KeyAPIKey),
		PreviewMinDisplay: minDisplay,
		Sidebar:           v.GetBool(KeySidebar),
		Debug:             v.GetBool(KeyDebug),
	}, nil
}
