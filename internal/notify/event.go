package notify

import (
	"context"
	"time"
)

const (
	KindProjectAssigned = "project_assigned"
	KindDefectReported  = "defect_reported"
	KindCommentAdded    = "comment_added"
)

// Recipient is one interested party resolved by the core: the project
// creator and the assigned analyst, depending on the event.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is emitted after a unit of work commits. It travels outside the
// transaction; losing or failing to deliver one never affects the write
// it describes.
type Event struct {
	ID           string      `json:"id"`
	Kind         string      `json:"kind"`
	ProjectID    int64       `json:"project_id"`
	ProjectTitle string      `json:"project_title"`
	Actor        string      `json:"actor"`
	Detail       string      `json:"detail"`
	Recipients   []Recipient `json:"recipients"`
	At           time.Time   `json:"at"`
}

// Publisher is what the write-side services hold; the Redis publisher
// implements it and tests substitute their own.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
