package app

import (
	"os"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// LoadConfig reads the base configuration from an optional YAML file at
// configPath, overlaid with environment variables.
func LoadConfig(configPath string) (*BaseConfig, error) {
	return loadConfig(viper.New(), configPath)
}

func loadConfig(v *viper.Viper, configPath string) (*BaseConfig, error) {
	for _, key := range envBoundKeys {
		if err := v.BindEnv(key, envVarName(key)); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if len(configPath) > 0 {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", configPath)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "failed to stat %s", configPath)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *BaseConfig) validate() error {
	if len(c.AppName) == 0 {
		return errors.New("app_name must be set")
	}
	if len(c.ListenAddress) == 0 {
		return errors.New("listen_address must be set")
	}
	if c.ShutdownGracePeriod <= 0 {
		return errors.New("shutdown_grace_period must be positive")
	}
	if c.EnableBallast && (c.BallastCapacity <= 0 || c.BallastCapacity > 1) {
		return errors.New("ballast_capacity must be within (0, 1]")
	}
	if c.EnableMemoryLeakCron {
		if _, err := cron.ParseStandard(c.MemoryLeakCronSchedule); err != nil {
			return errors.Wrap(err, "invalid memory_leak_cron_schedule")
		}
	}
	return nil
}
