package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	var calls atomic.Int32
	require.NoError(t, WaitFor(time.Second, 5*time.Millisecond, func() bool {
		return calls.Add(1) >= 3
	}))
	assert.EqualValues(t, 3, calls.Load())

	require.Error(t, WaitFor(30*time.Millisecond, 10*time.Millisecond, func() bool {
		return false
	}))

	require.Error(t, WaitFor(10*time.Millisecond, 50*time.Millisecond, func() bool {
		return true
	}))
	require.Error(t, WaitFor(10*time.Millisecond, 0, func() bool {
		return true
	}))
}

func TestCaptureLogs(t *testing.T) {
	hook := CaptureLogs(t)

	logrus.WithField("payment_id", "pay_1").Trace("polled")
	logrus.Warn("lookup failed")

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "pay_1", hook.AllEntries()[0].Data["payment_id"])
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
