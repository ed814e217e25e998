package reconcile

import "github.com/coldvault/core/pkg/ids"

// IndexEventKind discriminates the three event variants the index pushes to
// a bucket via c2c_sync_index.
type IndexEventKind int

const (
	// EventUserAdded grants a user upload authorization on the bucket.
	EventUserAdded IndexEventKind = iota
	// EventUserRemoved revokes a user and cascades to remove_file for every file they own.
	EventUserRemoved
	// EventAccessorRemoved cascades remove_accessor on the bucket.
	EventAccessorRemoved
)

func (k IndexEventKind) String() string {
	switch k {
	case EventUserAdded:
		return "UserAdded"
	case EventUserRemoved:
		return "UserRemoved"
	case EventAccessorRemoved:
		return "AccessorRemoved"
	default:
		return "Unknown"
	}
}

// IndexEvent is one entry in an index->bucket sync batch (§4.3).
type IndexEvent struct {
	Kind       IndexEventKind
	UserId     ids.UserId     // set for EventUserAdded, EventUserRemoved
	AccessorId ids.AccessorId // set for EventAccessorRemoved
}

// NewUserAddedEvent wraps a UserAdded notification.
func NewUserAddedEvent(user ids.UserId) IndexEvent {
	return IndexEvent{Kind: EventUserAdded, UserId: user}
}

// NewUserRemovedEvent wraps a UserRemoved notification.
func NewUserRemovedEvent(user ids.UserId) IndexEvent {
	return IndexEvent{Kind: EventUserRemoved, UserId: user}
}

// NewAccessorRemovedEvent wraps an AccessorRemoved notification.
func NewAccessorRemovedEvent(accessor ids.AccessorId) IndexEvent {
	return IndexEvent{Kind: EventAccessorRemoved, AccessorId: accessor}
}
