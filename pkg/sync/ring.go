package sync

import (
	"encoding/binary"
	"strconv"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently hashes keys onto a fixed set of nodes. Every node is
// placed on the ring several times so keys spread evenly.
type ring[T any] struct {
	points *treemap.Map // int64 hash -> T
	first  T
}

func newRing[T any](nodes map[string]T, pointsPerNode int) *ring[T] {
	points := treemap.NewWith(utils.Int64Comparator)

	var buf [12]byte
	for name, node := range nodes {
		nameHash, _ := murmur3.Sum128([]byte(name))
		binary.BigEndian.PutUint64(buf[:8], nameHash)

		for i := 0; i < pointsPerNode; i++ {
			binary.BigEndian.PutUint32(buf[8:], uint32(i))
			points.Put(hash64(buf[:]), node)
		}
	}

	r := &ring[T]{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(T)
	}
	return r
}

// get returns the node owning key: the first point at or after its hash,
// wrapping around to the start of the ring.
func (r *ring[T]) get(key string) T {
	if _, node := r.points.Ceiling(hash64([]byte(key))); node != nil {
		return node.(T)
	}
	return r.first
}

func hash64(b []byte) int64 {
	h, _ := murmur3.Sum128(b)
	return int64(h)
}

func nodeName(i int) string {
	return "stripe-" + strconv.Itoa(i)
}
