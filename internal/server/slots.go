package server

import (
	"net"
	"sync/atomic"
)

// DefaultMaxConnections is the slot table capacity used when the config
// does not specify one.
const DefaultMaxConnections = 10

// slot is one entry in the server's fixed-capacity connection table. The
// conn field is written only by the accept goroutine at acquire time and the
// flag transitions enforce that no two live connections ever share a slot.
type slot struct {
	index int
	inUse atomic.Bool
	conn  net.Conn
}

// slotTable tracks live connections. Ownership is deliberately narrow:
// acquire runs only on the accept goroutine, release only on the worker that
// owns the slot, so the flag CAS is the only synchronization needed. A
// release racing the acquire scan can at worst make the scan miss a freshly
// freed slot and reject a connection, never hand out the same slot twice.
type slotTable struct {
	slots []*slot
}

func newSlotTable(capacity int) *slotTable {
	if capacity <= 0 {
		capacity = DefaultMaxConnections
	}

	t := &slotTable{slots: make([]*slot, capacity)}
	for i := range t.slots {
		t.slots[i] = &slot{index: i}
	}
	return t
}

func (t *slotTable) capacity() int { return len(t.slots) }

// acquire claims a free slot for conn, reporting failure when the table is
// full.
func (t *slotTable) acquire(conn net.Conn) (*slot, bool) {
	for _, sl := range t.slots {
		if sl.inUse.CompareAndSwap(false, true) {
			sl.conn = conn
			return sl, true
		}
	}
	return nil, false
}

// release returns sl to the free pool. The owning worker must have closed
// the connection first; the conn field is left in place for the shutdown
// path and is overwritten by the next acquire.
func (t *slotTable) release(sl *slot) {
	sl.inUse.Store(false)
}
