package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/memory"
)

type wrapperTestCase[T any] struct {
	defaultValue   T
	overridenValue T

	rawValue         []byte
	expectedFromRaw  T
	invalidRawValue  []byte
	unsupportedValue interface{}
}

func runWrapperTest[T any](t *testing.T, ctor func(config.Config, T) config.Typed[T], tc wrapperTestCase[T]) {
	ctx := context.Background()
	mock := memory.NewConfig(nil)
	wrapper := ctor(mock, tc.defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)
	assert.Equal(t, tc.defaultValue, wrapper.Get(ctx))

	// The overriden value is returned when set
	mock.SetValue(tc.overridenValue)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.overridenValue, val)

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.Equal(t, tc.overridenValue, val)
	assert.Equal(t, tc.overridenValue, wrapper.Get(ctx))

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)

	// Environment sources provide byte arrays
	mock.SetValue(tc.rawValue)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc.expectedFromRaw, val)

	if tc.invalidRawValue != nil {
		mock.SetValue(tc.invalidRawValue)
		val, err = wrapper.GetSafe(ctx)
		require.Error(t, err)
		assert.Equal(t, tc.expectedFromRaw, val)
	}

	// Return an unsupported source value type
	mock.SetValue(tc.unsupportedValue)
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, tc.expectedFromRaw, val)

	// Shutdown via the wrapper
	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	runWrapperTest(t, NewBoolConfig, wrapperTestCase[bool]{
		defaultValue:     true,
		overridenValue:   false,
		rawValue:         []byte("false"),
		expectedFromRaw:  false,
		invalidRawValue:  []byte("not a bool"),
		unsupportedValue: "true",
	})
}

func TestUint64Config(t *testing.T) {
	runWrapperTest(t, NewUint64Config, wrapperTestCase[uint64]{
		defaultValue:     250,
		overridenValue:   1000,
		rawValue:         []byte("42"),
		expectedFromRaw:  42,
		invalidRawValue:  []byte("-1"),
		unsupportedValue: "42",
	})
}

func TestFloat64Config(t *testing.T) {
	runWrapperTest(t, NewFloat64Config, wrapperTestCase[float64]{
		defaultValue:     1.0,
		overridenValue:   0.25,
		rawValue:         []byte("2.5"),
		expectedFromRaw:  2.5,
		invalidRawValue:  []byte("fast"),
		unsupportedValue: 3,
	})
}

func TestStringConfig(t *testing.T) {
	runWrapperTest(t, NewStringConfig, wrapperTestCase[string]{
		defaultValue:     "https://sandbox.sablepay.io",
		overridenValue:   "https://api.sablepay.io",
		rawValue:         []byte("http://localhost:9000"),
		expectedFromRaw:  "http://localhost:9000",
		unsupportedValue: 1234,
	})
}

func TestDurationConfig(t *testing.T) {
	runWrapperTest(t, NewDurationConfig, wrapperTestCase[time.Duration]{
		defaultValue:     3 * time.Second,
		overridenValue:   -2 * time.Hour,
		rawValue:         []byte("1500ms"),
		expectedFromRaw:  1500 * time.Millisecond,
		invalidRawValue:  []byte("cannot convert"),
		unsupportedValue: "3s",
	})
}
