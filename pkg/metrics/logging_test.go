package metrics

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelicLogFormatter_WithoutApplication(t *testing.T) {
	inner := &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}
	formatter := NewNewRelicLogFormatter(nil, inner)

	entry := logrus.NewEntry(logrus.New()).WithField("payment_id", "pay_1")
	entry.Level = logrus.InfoLevel
	entry.Message = "poll started"

	expected, err := inner.Format(entry)
	require.NoError(t, err)

	actual, err := formatter.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestNewRelicMessage(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{
		"type":       "poller",
		"payment_id": "pay_1",
		"error":      errors.New("status lookup failed"),
	})
	entry.Message = "poll ended"

	assert.Equal(
		t,
		`poll ended error="status lookup failed" payment_id="pay_1" type="poller"`,
		newRelicMessage(entry),
	)

	assert.Equal(t, "bare", newRelicMessage(&logrus.Entry{Message: "bare"}))
}
