package config

import (
	"errors"
	"fmt"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"net/url"
)

type APIConfig struct {
	BaseURL              string  `mapstructure:"base_url"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`
	HealthCheckSchedule  string  `mapstructure:"health_check_schedule"`
}

func (config APIConfig) validate() error {
	var errs []error

	if config.BaseURL == "" {
		errs = append(errs, fmt.Errorf("missing variable: base_url"))
	} else if u, err := url.Parse(config.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base_url: %v", config.BaseURL))
	}

	if config.MaxRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be non-negative"))
	}

	if config.HealthCheckSchedule != "" {
		if _, err := cron.ParseStandard(config.HealthCheckSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid health_check_schedule: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config APIConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("api.base_url", "JOBS_API_URL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("api.max_requests_per_second", "JOBS_API_MAX_REQUESTS_PER_SECOND"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("api.health_check_schedule", "HEALTH_CHECK_SCHEDULE"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
