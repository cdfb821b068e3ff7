package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"mt5bot/internal/logger"
)

// Watch reloads the file on filesystem changes and applies the log level,
// which is the one setting safe to change while the bot runs. Everything else
// requires a restart.
func Watch(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		level := v.GetString("app.log_level")
		if level == "" {
			return
		}
		logger.SetLevel(level)
		logger.Infof("log level set to %s", level)
	})
	v.WatchConfig()
	return nil
}
