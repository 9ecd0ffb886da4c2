package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event notifies connected editors that an entity changed; payloads carry
// identifiers only, clients re-fetch what they display.
type Event struct {
	Type       string    `json:"type"` // e.g. "testcase.updated", "fixture.deleted"
	ProjectID  uuid.UUID `json:"project_id"`
	EntityID   uuid.UUID `json:"entity_id"`
	Version    string    `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus fans change events out across backend instances. Publishing is
// fire-and-forget from the caller's perspective; a lost event degrades
// liveness, never correctness.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
