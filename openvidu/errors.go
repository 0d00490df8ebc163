package openvidu

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Enumerated remote failures. Every mutating and querying operation maps
// the status codes the server documents onto these sentinels; callers
// match them with errors.Is. Status codes outside the enumerated set
// surface as *ServerError instead.
var (
	// ErrSessionNotFound is returned when the session does not exist, either
	// in the local cache (GetSession) or on the remote server.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyExists is returned by CreateSession when the server
	// rejects the creation because the identifier is already taken.
	ErrSessionAlreadyExists = errors.New("session already exists")

	// ErrNoConnectedParticipants is returned by StartRecording when the
	// session has nobody connected to record.
	ErrNoConnectedParticipants = errors.New("session has no connected participants")

	// ErrSessionNotRecordable is returned by StartRecording when the session
	// media mode does not support recording or a recording is already
	// running for it.
	ErrSessionNotRecordable = errors.New("session cannot be recorded")

	// ErrInvalidResolution is returned by StartRecording when the requested
	// recording resolution is rejected by the server.
	ErrInvalidResolution = errors.New("recording resolution invalid")

	// ErrRecordingDisabled is returned by StartRecording when the recording
	// module is disabled on the server.
	ErrRecordingDisabled = errors.New("recording disabled on the server")

	// ErrRecordingNotFound is returned when the recording identifier is
	// unknown to the server.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrRecordingStatusConflict is returned when a recording is in a state
	// that forbids the operation: stopping a recording that has not reached
	// started yet, or deleting a recording that is still started.
	ErrRecordingStatusConflict = errors.New("recording status conflict")

	// ErrConnectionNotFound is returned by Session.ForceDisconnect when the
	// connection identifier is unknown to the server.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrStreamNotFound is returned by Session.ForceUnpublish when the
	// stream identifier is unknown to the server.
	ErrStreamNotFound = errors.New("stream not found")
)

// ServerError is the catch-all failure for responses whose status code is
// not enumerated for the operation. Message carries the server-supplied
// "message" field when the body has one, otherwise a synthesized message
// embedding the raw status code.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// serverError builds the shared fallback error from a non-enumerated
// response. Every operation funnels its default branch through here.
func serverError(status int, body []byte) *ServerError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &ServerError{Status: status, Message: payload.Message}
	}
	return &ServerError{Status: status, Message: fmt.Sprintf("unexpected status code %d", status)}
}
