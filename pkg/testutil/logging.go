package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Tests log at trace level, but only print when run with -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v=true" || arg == "-test.v" {
			return
		}
	}
	logrus.StandardLogger().SetOutput(io.Discard)
}

// CaptureLogs records every entry written to the standard logger until the
// test ends.
func CaptureLogs(t testing.TB) *test.Hook {
	logger := logrus.StandardLogger()

	hook := new(test.Hook)
	original := logger.ReplaceHooks(make(logrus.LevelHooks))
	logger.AddHook(hook)

	level := logger.GetLevel()
	logger.SetLevel(logrus.TraceLevel)

	t.Cleanup(func() {
		logger.ReplaceHooks(original)
		logger.SetLevel(level)
	})
	return hook
}
