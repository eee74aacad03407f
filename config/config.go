// Package config loads chat-relay's configuration file via viper,
// matching the teacher's config.LoadConfig shape: one struct assembled
// once at startup and handed through fx.Provide as a fixed value.
// Watch is a standalone fsnotify helper that reports edits to the file;
// LoadConfig does not watch the file itself.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
)

// Server is spec.md §6's [server] section.
type Server struct {
	Threads int    `mapstructure:"threads"`
	Pid     string `mapstructure:"pid"`
	Port    int    `mapstructure:"port"`
}

// Storage is spec.md §6's [storage] section.
type Storage struct {
	StorageLibrary string `mapstructure:"storage_library"`
	StorageConfig  string `mapstructure:"storage_config"`
}

// Logger is spec.md §6's [logger] section.
type Logger struct {
	LogFile      string `mapstructure:"log_file"`
	MaxFileSize  int    `mapstructure:"max_file_size"`
	MaxFileCount int    `mapstructure:"max_file_count"`
}

// Notify is SPEC_FULL.md's optional [notify] section: when AMQPURI is
// set, SendMessage publishes a "message stored" event over
// watermill-amqp (internal/rpc/notify); left blank, the fan-out is
// disabled entirely and no AMQP connection is attempted.
type Notify struct {
	AMQPURI string `mapstructure:"amqp_uri"`
}

// Config is the fully loaded, validated configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Logger  Logger  `mapstructure:"logger"`
	Notify  Notify  `mapstructure:"notify"`
}

// LoadConfig reads path (or the default search path when path is empty)
// via viper, validates required fields, and returns a *Config. Missing
// required fields are a fatal ConfigError per spec.md §7 — the caller is
// expected to treat a non-nil error as fatal at startup.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chat-relay")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/chat-relay")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Storage.StorageLibrary == "" {
		return errs.NewKind(errs.KindConfig, "config: storage.storage_library is required")
	}
	if cfg.Server.Port <= 0 {
		return errs.NewKind(errs.KindConfig, "config: server.port is required")
	}
	return nil
}

// Watch invokes onChange every time the config file backing path changes
// on disk, using fsnotify directly the way viper's own OnConfigChange
// does internally — exposed standalone so [logger]/[storage] edits can be
// picked up without re-running the full fx lifecycle.
func Watch(path string, onChange func()) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	go func() {
		for event := range w.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		}
	}()
	return w, nil
}
