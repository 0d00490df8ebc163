package openvidu

import "time"

// The builders in this file turn decoded JSON payloads into value objects,
// substituting documented defaults for missing optional fields. They are
// pure and tolerate absent fields; a payload that is not a JSON object
// yields nil rather than an error.

// RecordingPropertiesFromJSON builds RecordingProperties from a decoded
// JSON payload. Missing fields resolve to their documented defaults.
// Returns nil when the payload is not a JSON object.
func RecordingPropertiesFromJSON(payload any) *RecordingProperties {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	defaults := DefaultRecordingProperties()
	props := RecordingProperties{
		Name:            stringField(fields, "name", defaults.Name),
		OutputMode:      OutputMode(stringField(fields, "outputMode", string(defaults.OutputMode))),
		RecordingLayout: RecordingLayout(stringField(fields, "recordingLayout", string(defaults.RecordingLayout))),
		CustomLayout:    stringField(fields, "customLayout", defaults.CustomLayout),
		Resolution:      stringField(fields, "resolution", defaults.Resolution),
		HasAudio:        boolField(fields, "hasAudio", defaults.HasAudio),
		HasVideo:        boolField(fields, "hasVideo", defaults.HasVideo),
	}
	return &props
}

// sessionPropertiesFromJSON builds SessionProperties from a session
// payload, which reports the properties flattened at the top level.
func sessionPropertiesFromJSON(fields map[string]any) SessionProperties {
	defaults := DefaultSessionProperties()
	return SessionProperties{
		MediaMode:              MediaMode(stringField(fields, "mediaMode", string(defaults.MediaMode))),
		RecordingMode:          RecordingMode(stringField(fields, "recordingMode", string(defaults.RecordingMode))),
		DefaultOutputMode:      OutputMode(stringField(fields, "defaultOutputMode", string(defaults.DefaultOutputMode))),
		DefaultRecordingLayout: RecordingLayout(stringField(fields, "defaultRecordingLayout", string(defaults.DefaultRecordingLayout))),
		DefaultCustomLayout:    stringField(fields, "defaultCustomLayout", ""),
		CustomSessionID:        stringField(fields, "customSessionId", ""),
	}
}

// sessionSnapshotFromJSON builds the last-known state of a session from a
// session payload. Returns nil when the payload is not a JSON object or
// carries no identifier. Session creation responses report the identifier
// as "id"; session queries report it as "sessionId".
func sessionSnapshotFromJSON(payload any) *SessionSnapshot {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	id := stringField(fields, "sessionId", stringField(fields, "id", ""))
	if id == "" {
		return nil
	}
	snapshot := SessionSnapshot{
		SessionID:  id,
		CreatedAt:  timeField(fields, "createdAt"),
		Properties: sessionPropertiesFromJSON(fields),
		Recording:  boolField(fields, "recording", false),
	}
	if connections, ok := fields["connections"].(map[string]any); ok {
		if content, ok := connections["content"].([]any); ok {
			for _, item := range content {
				if connection := connectionFromJSON(item); connection != nil {
					snapshot.Connections = append(snapshot.Connections, *connection)
				}
			}
		}
	}
	return &snapshot
}

// connectionFromJSON builds a Connection from a decoded payload. Returns
// nil when the payload is not a JSON object.
func connectionFromJSON(payload any) *Connection {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	connection := Connection{
		ConnectionID: stringField(fields, "connectionId", ""),
		CreatedAt:    timeField(fields, "createdAt"),
		Token:        stringField(fields, "token", ""),
		Role:         Role(stringField(fields, "role", string(RolePublisher))),
		Location:     stringField(fields, "location", ""),
		Platform:     stringField(fields, "platform", ""),
		ServerData:   stringField(fields, "serverData", ""),
		ClientData:   stringField(fields, "clientData", ""),
	}
	if publishers, ok := fields["publishers"].([]any); ok {
		for _, item := range publishers {
			if publisher := publisherFromJSON(item); publisher != nil {
				connection.Publishers = append(connection.Publishers, *publisher)
			}
		}
	}
	if subscribers, ok := fields["subscribers"].([]any); ok {
		for _, item := range subscribers {
			switch value := item.(type) {
			case string:
				connection.Subscribers = append(connection.Subscribers, value)
			case map[string]any:
				if streamID := stringField(value, "streamId", ""); streamID != "" {
					connection.Subscribers = append(connection.Subscribers, streamID)
				}
			}
		}
	}
	return &connection
}

// publisherFromJSON builds a Publisher from a decoded payload. Media
// options arrive nested under "mediaOptions"; older servers report them
// flattened, so the top level serves as fallback.
func publisherFromJSON(payload any) *Publisher {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	media := fields
	if nested, ok := fields["mediaOptions"].(map[string]any); ok {
		media = nested
	}
	return &Publisher{
		StreamID:        stringField(fields, "streamId", ""),
		CreatedAt:       timeField(fields, "createdAt"),
		HasAudio:        boolField(media, "hasAudio", true),
		HasVideo:        boolField(media, "hasVideo", true),
		AudioActive:     boolField(media, "audioActive", true),
		VideoActive:     boolField(media, "videoActive", true),
		FrameRate:       floatField(media, "frameRate", 0),
		TypeOfVideo:     stringField(media, "typeOfVideo", ""),
		VideoDimensions: stringField(media, "videoDimensions", ""),
	}
}

// recordingFromJSON builds a Recording from a decoded payload. The server
// reports recording properties flattened at the top level; the builder
// regroups them with defaults resolved. Returns nil when the payload is
// not a JSON object or carries no identifier.
func recordingFromJSON(payload any) *Recording {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	id := stringField(fields, "id", "")
	if id == "" {
		return nil
	}
	properties := RecordingPropertiesFromJSON(payload)
	return &Recording{
		ID:         id,
		SessionID:  stringField(fields, "sessionId", ""),
		CreatedAt:  timeField(fields, "createdAt"),
		Size:       int64(floatField(fields, "size", 0)),
		Duration:   floatField(fields, "duration", 0),
		URL:        stringField(fields, "url", ""),
		Status:     RecordingStatus(stringField(fields, "status", "")),
		Properties: *properties,
	}
}

func stringField(fields map[string]any, key, fallback string) string {
	if value, ok := fields[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func boolField(fields map[string]any, key string, fallback bool) bool {
	if value, ok := fields[key].(bool); ok {
		return value
	}
	return fallback
}

func floatField(fields map[string]any, key string, fallback float64) float64 {
	if value, ok := fields[key].(float64); ok {
		return value
	}
	return fallback
}

// timeField reads a millisecond epoch timestamp. The zero time stands in
// for missing or malformed values.
func timeField(fields map[string]any, key string) time.Time {
	millis, ok := fields[key].(float64)
	if !ok || millis <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(millis)).UTC()
}
