package app

import (
	"strings"
	"time"
)

// Config is the storefront's own section of the config file, under "app". It
// is passed to App.Init as is.
type Config map[string]interface{}

// BaseConfig is the process level configuration read by Run.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`
	AppName  string `mapstructure:"app_name"`

	// HTTP serving
	ListenAddress       string        `mapstructure:"listen_address"`
	ReadHeaderTimeout   time.Duration `mapstructure:"read_header_timeout"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Debug endpoints, served on a separate listener that should never be
	// publicly reachable.
	DebugListenAddress string `mapstructure:"debug_listen_address"`
	EnablePprof        bool   `mapstructure:"enable_pprof"`
	EnableExpvar       bool   `mapstructure:"enable_expvar"`

	// A heap ballast, as a fraction of total memory capped at one half,
	// reduces GC frequency for the poller's many small allocations.
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Restarts the process on a cron schedule, as a backstop against leaks in
	// long running poll sessions.
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	// New Relic is disabled when empty.
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",
	AppName:  "coffee-pos",

	ListenAddress:       ":3000",
	ReadHeaderTimeout:   10 * time.Second,
	ShutdownGracePeriod: 30 * time.Second,

	DebugListenAddress: "localhost:8123",

	BallastCapacity: 0.25,

	MemoryLeakCronSchedule: "0 5 * * *",
}

// envBoundKeys can be set through the environment variable of the same name,
// upper-cased, on top of the config file.
var envBoundKeys = []string{
	"log_level",
	"app_name",
	"listen_address",
	"read_header_timeout",
	"shutdown_grace_period",
	"debug_listen_address",
	"enable_pprof",
	"enable_expvar",
	"enable_ballast",
	"ballast_capacity",
	"enable_memory_leak_cron",
	"memory_leak_cron_schedule",
	"new_relic_license_key",
}

func envVarName(key string) string {
	return strings.ToUpper(key)
}
