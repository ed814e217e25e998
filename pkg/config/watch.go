package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/coldvault/core/internal/logger"
)

// Watch reloads the configuration file at configPath on every write and
// invokes onChange with the newly loaded, defaulted, and validated Config.
// A reload that fails validation is logged and the previous configuration
// is left in place — callers never observe a broken config.
func Watch(configPath string, onChange func(*Config)) error {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(configPath)
		if err != nil {
			logger.Error("config reload failed, keeping previous configuration", logger.Err(err))
			return
		}
		logger.Info("configuration reloaded", "path", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
