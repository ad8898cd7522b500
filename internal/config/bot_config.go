package config

import (
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type BotConfig struct {
	Token      string        `mapstructure:"token"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

func (config BotConfig) validate() error {

	if config.Token == "" {
		return fmt.Errorf("missing required variables: token")
	}

	if config.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	return nil
}

func (config BotConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("bot.token", "TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("bot.session_ttl", "SESSION_TTL"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
