// Package config loads punchcard settings from a yaml file, PUNCHCARD_*
// environment variables and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/punchcard/internal/calendar"
)

const (
	AppName   = "punchcard"
	EnvPrefix = "PUNCHCARD"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	APIURL   string
	Token    string
	Timezone string
	Location *time.Location

	DBPath    string
	StatePath string
	LogFile   string
	LogLevel  string

	TickInterval        time.Duration
	HeartbeatInterval   time.Duration
	MessagePollInterval time.Duration
	UnreadPollInterval  time.Duration
	SyncInterval        time.Duration
	RequestTimeout      time.Duration

	DesktopNotifications bool
	SchedulerBuffer      int

	// File is the config file that was read, empty when none exists.
	File string
}

// Dir returns $XDG_CONFIG_HOME/punchcard or its per-OS fallback.
func Dir() (string, error) {
	home := os.Getenv("XDG_CONFIG_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if runtime.GOOS == "windows" {
			home = filepath.Join(userHome, "AppData", "Roaming")
		} else {
			home = filepath.Join(userHome, ".config")
		}
	}
	return filepath.Join(home, AppName), nil
}

func DefaultFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".yml"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("token", "")
	v.SetDefault("timezone", calendar.DefaultZone)
	v.SetDefault("db_path", filepath.Join(dir, "cache.db"))
	v.SetDefault("state_path", filepath.Join(dir, "state.json"))
	v.SetDefault("log_file", filepath.Join(dir, "punchcard.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("heartbeat_interval", "30s")
	v.SetDefault("message_poll_interval", "5s")
	v.SetDefault("unread_poll_interval", "10s")
	v.SetDefault("sync_interval", "2m")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("desktop_notifications", false)
	v.SetDefault("scheduler_buffer", 64)
}

// Load reads path (or the default file when path is empty). A missing file
// is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		def, err := DefaultFile()
		if err != nil {
			return Config{}, err
		}
		path = def
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, filepath.Dir(path))

	cfg := Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if explicit {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		cfg.File = path
	}
	return fromViper(v, cfg)
}

func fromViper(v *viper.Viper, cfg Config) (Config, error) {
	cfg.APIURL = strings.TrimSpace(v.GetString("api_url"))
	cfg.Token = strings.TrimSpace(v.GetString("token"))
	cfg.Timezone = strings.TrimSpace(v.GetString("timezone"))
	cfg.DBPath = v.GetString("db_path")
	cfg.StatePath = v.GetString("state_path")
	cfg.LogFile = v.GetString("log_file")
	cfg.LogLevel = v.GetString("log_level")
	cfg.DesktopNotifications = v.GetBool("desktop_notifications")
	cfg.SchedulerBuffer = v.GetInt("scheduler_buffer")

	loc, err := calendar.LoadZone(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, cfg.Timezone, err)
	}
	cfg.Location = loc

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"tick_interval", &cfg.TickInterval},
		{"heartbeat_interval", &cfg.HeartbeatInterval},
		{"message_poll_interval", &cfg.MessagePollInterval},
		{"unread_poll_interval", &cfg.UnreadPollInterval},
		{"sync_interval", &cfg.SyncInterval},
		{"request_timeout", &cfg.RequestTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("%w: %s %q", ErrInvalid, d.key, v.GetString(d.key))
		}
		*d.dst = parsed
	}
	if cfg.SchedulerBuffer <= 0 {
		return Config{}, fmt.Errorf("%w: scheduler_buffer %d", ErrInvalid, cfg.SchedulerBuffer)
	}
	return cfg, nil
}

// WriteDefault writes a config file with default values at path unless one
// already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, filepath.Dir(path))
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
