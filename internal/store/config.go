package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCHOOL_SCHEDULE_ADDR.
const EnvPrefix = "SCHOOL_SCHEDULE"

type Config struct {
	// Dir holds the database and uploaded images.
	Dir  string
	Addr string

	QuietWindow     time.Duration
	FilePickerGrace time.Duration
	SettleDelay     time.Duration

	UploadMaxBytes int64

	// TokenSecret enables bearer-token auth on the web host when set.
	TokenSecret string

	LogPath  string
	LogLevel string
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.school-schedule).
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_DIR")); v != "" {
		return homedir.Expand(v)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".school-schedule"), nil
}

// LoadConfig reads config.{yaml,json,toml} from ConfigDir when present, then applies
// SCHOOL_SCHEDULE_* environment overrides.
func LoadConfig() (Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("dir", dir)
	v.SetDefault("addr", "127.0.0.1:8765")
	v.SetDefault("quiet_window", "2s")
	v.SetDefault("file_picker_grace", "300ms")
	v.SetDefault("settle_delay", "300ms")
	v.SetDefault("upload_max_bytes", 5*1024*1024)
	v.SetDefault("token_secret", "")
	v.SetDefault("log_path", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	cfg := Config{
		Addr:            strings.TrimSpace(v.GetString("addr")),
		QuietWindow:     v.GetDuration("quiet_window"),
		FilePickerGrace: v.GetDuration("file_picker_grace"),
		SettleDelay:     v.GetDuration("settle_delay"),
		UploadMaxBytes:  v.GetInt64("upload_max_bytes"),
		TokenSecret:     v.GetString("token_secret"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if cfg.Dir, err = homedir.Expand(strings.TrimSpace(v.GetString("dir"))); err != nil {
		return Config{}, err
	}
	if p := strings.TrimSpace(v.GetString("log_path")); p != "" {
		if cfg.LogPath, err = homedir.Expand(p); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
