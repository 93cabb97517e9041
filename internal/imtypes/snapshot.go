package imtypes

// SnapshotKind tags snapshot frames on the live subscription.
const SnapshotKind = "snapshot"

// Snapshot is the full ordered message list at one point in time.
// Version increases monotonically for a given stream.
type Snapshot struct {
	Kind     string    `json:"kind"`
	Version  uint64    `json:"version"`
	Messages []Message `json:"messages"`
}

// SnapshotStream is a live subscription to the message store.
// Snapshots delivers whole replacements, never deltas, and is closed when the
// stream ends. Err reports why it ended.
type SnapshotStream interface {
	Snapshots() <-chan Snapshot
	Err() error
	Close() error
}
