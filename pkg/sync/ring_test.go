package sync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_Stable(t *testing.T) {
	nodes := make(map[string]int)
	for i := 0; i < 16; i++ {
		nodes[nodeName(i)] = i
	}

	a := newRing(nodes, pointsPerStripe)
	b := newRing(nodes, pointsPerStripe)

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("pay_%d", i)
		assert.Equal(t, a.get(key), a.get(key))
		assert.Equal(t, a.get(key), b.get(key))
	}
}

func TestRing_Spread(t *testing.T) {
	const nodeCount, keyCount = 4, 100000

	nodes := make(map[string]int)
	for i := 0; i < nodeCount; i++ {
		nodes[nodeName(i)] = i
	}
	r := newRing(nodes, pointsPerStripe)

	hits := make(map[int]int)
	for i := 0; i < keyCount; i++ {
		hits[r.get(fmt.Sprintf("pay_%d", i))]++
	}

	assert.Len(t, hits, nodeCount)
	expected := keyCount / nodeCount
	for node, count := range hits {
		assert.InDelta(t, expected, count, 0.15*float64(expected), "node %d", node)
	}
}

func TestRing_Empty(t *testing.T) {
	r := newRing(map[string]string{}, pointsPerStripe)
	assert.Empty(t, r.get("pay_1"))
}
