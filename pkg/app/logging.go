package app

import (
	"os"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/metrics"
)

// ConfigureLogger sets up the standard logger: JSON to stdout, forwarded to
// New Relic when a metrics provider is set, at the configured level.
func ConfigureLogger(config *BaseConfig, metricsProvider *newrelic.Application) {
	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if metricsProvider != nil {
		formatter = metrics.NewNewRelicLogFormatter(metricsProvider, formatter)
	}
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(config.LogLevel)))
	if err != nil {
		logrus.WithField("log_level", config.LogLevel).Warn("unknown log level, keeping the current one")
		return
	}
	logrus.SetLevel(level)
}
