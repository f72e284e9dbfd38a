// Package metrics counts directory service activity.
package metrics

import "time"

// Rejection reasons passed to IncUserRejected.
const (
	ReasonInvalid   = "invalid"
	ReasonDuplicate = "duplicate"
)

// Store operations passed to ObserveStoreDuration.
const (
	OpList   = "list"
	OpAppend = "append"
)

// Recorder receives directory events from the service layer.
type Recorder interface {
	IncUsersListed()
	IncUserAppended()
	IncUserRejected(reason string)
	ObserveStoreDuration(op string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
