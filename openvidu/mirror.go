package openvidu

import (
	"context"
	"time"
)

// SessionSnapshot is the serialized form of a cached session: the
// last-known state the client holds for it, detached from the Session
// object identity.
type SessionSnapshot struct {
	SessionID   string            `json:"sessionId"`
	CreatedAt   time.Time         `json:"createdAt"`
	Properties  SessionProperties `json:"properties"`
	Connections []Connection      `json:"connections,omitempty"`
	Recording   bool              `json:"recording"`
}

// SessionMirror receives a snapshot of every active-session cache
// mutation so that processes sharing a mirror can observe each other's
// last-known session state. The in-process cache stays authoritative for
// the client that owns it: mirror failures are logged, never surfaced,
// and lookups never consult the mirror.
//
// Implementations must be safe for concurrent use.
type SessionMirror interface {
	// Save stores or replaces the snapshot for its session identifier.
	Save(ctx context.Context, snapshot SessionSnapshot) error

	// Delete removes the snapshot for the given session identifier.
	// Deleting an absent snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns every stored snapshot.
	List(ctx context.Context) ([]SessionSnapshot, error)

	// Close releases the mirror's resources.
	Close() error
}
