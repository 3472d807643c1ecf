package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// This is the default value for cgroup's limit_in_bytes. This is not a
	// valid value and indicates that the memory is not restricted.
	// See https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricted
	unrestrictedMemoryLimit = 9223372036854771712

	// Ballasts are never allowed to take more than this share of memory.
	maxBallastCapacity = 0.5
)

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // cgroup v1
	"/sys/fs/cgroup/memory.max",                   // cgroup v2, "max" when unrestricted
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range cgroupMemoryLimitLocations {
		if limit, ok := readMemoryLimit(location); ok && limit < totalMemory {
			return limit
		}
	}
	return totalMemory
}

// BallastSize returns the size of a GC ballast taking capacity of total
// memory. Capacity is capped at 50%.
func BallastSize(totalMemory uint64, capacity float32) uint64 {
	if capacity <= 0 {
		return 0
	}
	if capacity > maxBallastCapacity {
		capacity = maxBallastCapacity
	}
	return uint64(capacity * float32(totalMemory))
}

func readMemoryLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}

	limit, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || limit == unrestrictedMemoryLimit || limit == 0 {
		return 0, false
	}
	return limit, true
}
