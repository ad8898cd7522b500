package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

func (config MetricsConfig) validate() error {
	if config.Address == "" {
		return fmt.Errorf("missing variable: metrics address")
	}
	return nil
}

func (config MetricsConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("metrics.address", "METRICS_ADDRESS")
}
