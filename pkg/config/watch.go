package config

import (
	"errors"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/feedpager/internal/logger"
)

// ErrNoConfigFile is returned by Watch when there is no file to watch.
var ErrNoConfigFile = errors.New("no configuration file to watch")

// Watch reloads the configuration whenever the file changes and passes the
// new config to onChange. Edits that fail to parse or validate are logged
// and skipped. The watch lasts for the life of the process.
func Watch(configPath string, onChange func(*Config)) error {
	v := viper.New()
	setupViper(v, configPath)

	if err := setViperDefaults(v); err != nil {
		return err
	}

	found, err := readConfigFile(v)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoConfigFile
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", "file", e.Name, logger.Err(err))
			return
		}

		logger.Info("Configuration reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()

	return nil
}

// WatchLogLevel applies logging.level changes from the config file without
// a restart.
func WatchLogLevel(configPath string) error {
	return Watch(configPath, func(cfg *Config) {
		if logger.GetLevel().String() != cfg.Logging.Level {
			logger.SetLevel(cfg.Logging.Level)
			logger.Info("Log level changed", "level", cfg.Logging.Level)
		}
	})
}
