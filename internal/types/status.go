package types

// Status is the lifecycle status of a persisted record.
// Rows with StatusDeleted are soft deleted and excluded from every query.
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
)
