// Package webhook consumes the callback events an OpenVidu-compatible
// media server emits (session lifecycle, participants, recording status)
// and fans them out to subscribers. It is the producer side of the
// session-deletion observer relation the openvidu package consumes.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types emitted by the media server.
const (
	TypeSessionCreated         = "sessionCreated"
	TypeSessionDestroyed       = "sessionDestroyed"
	TypeParticipantJoined      = "participantJoined"
	TypeParticipantLeft        = "participantLeft"
	TypeRecordingStatusChanged = "recordingStatusChanged"
)

// Event is a single callback delivered by the media server. Fields not
// applicable to the event type are zero; Raw preserves the full payload
// for events the package does not model.
type Event struct {
	// Type is the event name as reported in the payload's "event" field.
	Type string

	// Timestamp is the server-side emission time.
	Timestamp time.Time

	// SessionID of the affected session, when the event carries one.
	SessionID string

	// ConnectionID of the affected participant, for participant events.
	ConnectionID string

	// RecordingID and RecordingStatus, for recording events.
	RecordingID     string
	RecordingStatus string

	// Reason the server reports for destructive events.
	Reason string

	// Raw is the decoded payload.
	Raw map[string]any
}

// ParseEvent decodes a callback body. Unknown event types are returned
// as-is rather than rejected, so subscribers can observe server versions
// that emit more than this package models.
func ParseEvent(body []byte) (Event, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	eventType, _ := fields["event"].(string)
	if eventType == "" {
		return Event{}, fmt.Errorf("webhook payload has no event field")
	}
	event := Event{
		Type:            eventType,
		SessionID:       stringValue(fields, "sessionId"),
		ConnectionID:    stringValue(fields, "participantId"),
		RecordingID:     stringValue(fields, "id"),
		RecordingStatus: stringValue(fields, "status"),
		Reason:          stringValue(fields, "reason"),
		Raw:             fields,
	}
	if millis, ok := fields["timestamp"].(float64); ok && millis > 0 {
		event.Timestamp = time.UnixMilli(int64(millis)).UTC()
	}
	// Recording identifiers only travel on recording events; other events
	// use "id" differently or not at all.
	if eventType != TypeRecordingStatusChanged {
		event.RecordingID = ""
		event.RecordingStatus = ""
	}
	return event, nil
}

func stringValue(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return value
}
