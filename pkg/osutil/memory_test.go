package osutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTotalMemory(t *testing.T) {
	assert.True(t, GetTotalMemory() > 0)
}

func TestBallastSize(t *testing.T) {
	assert.EqualValues(t, 0, BallastSize(1000, 0))
	assert.EqualValues(t, 0, BallastSize(1000, -1))
	assert.EqualValues(t, 250, BallastSize(1000, 0.25))
	assert.EqualValues(t, 500, BallastSize(1000, 0.9))
}

func TestReadMemoryLimit(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		location := filepath.Join(dir, name)
		assert.NoError(t, os.WriteFile(location, []byte(content), 0o600))
		return location
	}

	limit, ok := readMemoryLimit(write("v1", "536870912\n"))
	assert.True(t, ok)
	assert.EqualValues(t, 536870912, limit)

	_, ok = readMemoryLimit(write("unrestricted", "9223372036854771712\n"))
	assert.False(t, ok)

	_, ok = readMemoryLimit(write("v2", "max\n"))
	assert.False(t, ok)

	_, ok = readMemoryLimit(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}
