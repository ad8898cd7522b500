package events

var JobsChangedTopic = "JobsChangedEvent"

type MutationKind string

const (
	JobCreated MutationKind = "created"
	JobUpdated MutationKind = "updated"
	JobDeleted MutationKind = "deleted"
)

// JobsChanged tells the owner of a session that its list and suggestions are stale.
type JobsChanged struct {
	SessionID string
	JobID     int
	Kind      MutationKind
}
