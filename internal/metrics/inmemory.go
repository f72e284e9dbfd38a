package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersListed            uint64
	UsersAppended          uint64
	UsersRejectedInvalid   uint64
	UsersRejectedDuplicate uint64
	StoreListCount         uint64
	StoreListTotalNs       int64
	StoreAppendCount       uint64
	StoreAppendTotalNs     int64
}

// InMemoryRecorder keeps lock-free counters for the /metrics endpoint.
type InMemoryRecorder struct {
	usersListed            uint64
	usersAppended          uint64
	usersRejectedInvalid   uint64
	usersRejectedDuplicate uint64
	storeListCount         uint64
	storeListTotalNs       int64
	storeAppendCount       uint64
	storeAppendTotalNs     int64
}

var _ Recorder = (*InMemoryRecorder)(nil)

// NewInMemory returns an empty InMemoryRecorder.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersListed:            atomic.LoadUint64(&m.usersListed),
		UsersAppended:          atomic.LoadUint64(&m.usersAppended),
		UsersRejectedInvalid:   atomic.LoadUint64(&m.usersRejectedInvalid),
		UsersRejectedDuplicate: atomic.LoadUint64(&m.usersRejectedDuplicate),
		StoreListCount:         atomic.LoadUint64(&m.storeListCount),
		StoreListTotalNs:       atomic.LoadInt64(&m.storeListTotalNs),
		StoreAppendCount:       atomic.LoadUint64(&m.storeAppendCount),
		StoreAppendTotalNs:     atomic.LoadInt64(&m.storeAppendTotalNs),
	}
}

// IncUsersListed increments the list counter.
func (m *InMemoryRecorder) IncUsersListed() {
	atomic.AddUint64(&m.usersListed, 1)
}

// IncUserAppended increments the append counter.
func (m *InMemoryRecorder) IncUserAppended() {
	atomic.AddUint64(&m.usersAppended, 1)
}

// IncUserRejected increments the rejection counter for reason.
// Unknown reasons are counted as invalid.
func (m *InMemoryRecorder) IncUserRejected(reason string) {
	if reason == ReasonDuplicate {
		atomic.AddUint64(&m.usersRejectedDuplicate, 1)
		return
	}
	atomic.AddUint64(&m.usersRejectedInvalid, 1)
}

// ObserveStoreDuration records how long a store operation took.
func (m *InMemoryRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	switch op {
	case OpList:
		atomic.AddUint64(&m.storeListCount, 1)
		atomic.AddInt64(&m.storeListTotalNs, duration.Nanoseconds())
	case OpAppend:
		atomic.AddUint64(&m.storeAppendCount, 1)
		atomic.AddInt64(&m.storeAppendTotalNs, duration.Nanoseconds())
	}
}
