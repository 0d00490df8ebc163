package openvidu

import "time"

// Recording mirrors a remote recording resource. Recordings are only ever
// built from server responses; the client never mutates one besides
// rebuilding it from a fresh response body.
type Recording struct {
	// ID identifies the recording on the server.
	ID string `json:"id"`

	// SessionID is the session the recording belongs to.
	SessionID string `json:"sessionId"`

	// CreatedAt is the server-side creation time of the recording.
	CreatedAt time.Time `json:"createdAt"`

	// Size of the recorded file in bytes. Zero until the recording stops.
	Size int64 `json:"size"`

	// Duration of the recorded file in seconds. Zero until the recording
	// stops.
	Duration float64 `json:"duration"`

	// URL the recorded file is reachable at once the recording is ready.
	// Empty unless the server exposes recordings publicly.
	URL string `json:"url,omitempty"`

	// Status is the lifecycle state last reported by the server.
	Status RecordingStatus `json:"status"`

	// Properties are the effective recording properties, with server-side
	// defaults resolved.
	Properties RecordingProperties `json:"properties"`
}
