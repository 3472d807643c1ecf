package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/config"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewConfig(nil)

	steps := []struct {
		name    string
		apply   func()
		value   interface{}
		wantErr error
	}{
		{"unset", func() {}, nil, config.ErrNoValue},
		{"set", func() { c.SetValue("pay_1") }, "pay_1", nil},
		{"cleared", c.ClearValue, nil, config.ErrNoValue},
		{"failing", c.InduceErrors, nil, errDeveloperInduced},
		{"recovered", c.StopInducingErrors, nil, config.ErrNoValue},
		{"shutdown", c.Shutdown, nil, config.ErrShutdown},
	}
	for _, step := range steps {
		step.apply()

		value, err := c.Get(ctx)
		if step.wantErr != nil {
			assert.Equal(t, step.wantErr, err, step.name)
			continue
		}
		require.NoError(t, err, step.name)
		assert.Equal(t, step.value, value, step.name)
	}
}

func TestConfig_SetError(t *testing.T) {
	ctx := context.Background()
	c := NewConfig(uint64(256))

	errUnavailable := errors.New("config source unavailable")
	c.SetError(errUnavailable)
	_, err := c.Get(ctx)
	assert.Equal(t, errUnavailable, err)

	c.SetError(nil)
	value, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(256), value)
}
