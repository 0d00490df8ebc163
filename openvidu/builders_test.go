package openvidu

import (
	"encoding/json"
	"testing"
	"time"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return payload
}

// TestRecordingPropertiesFromJSONDefaults verifies that missing optional
// fields resolve to the documented defaults.
func TestRecordingPropertiesFromJSONDefaults(t *testing.T) {
	props := RecordingPropertiesFromJSON(decode(t, `{}`))
	if props == nil {
		t.Fatal("empty object should yield defaults, not nil")
	}
	if props.OutputMode != OutputModeComposed {
		t.Fatalf("expected composed output mode, got %q", props.OutputMode)
	}
	if props.RecordingLayout != RecordingLayoutBestFit {
		t.Fatalf("expected best-fit layout, got %q", props.RecordingLayout)
	}
	if props.CustomLayout != string(MediaModeRouted) {
		t.Fatalf("expected routed custom layout tag, got %q", props.CustomLayout)
	}
	if !props.HasAudio || !props.HasVideo {
		t.Fatalf("expected audio and video defaults, got %+v", props)
	}
	if props.Name != "" || props.Resolution != "" {
		t.Fatalf("expected empty name and resolution, got %+v", props)
	}
}

// TestRecordingPropertiesFromJSONExplicit verifies that present fields win
// over defaults, including explicit false booleans.
func TestRecordingPropertiesFromJSONExplicit(t *testing.T) {
	props := RecordingPropertiesFromJSON(decode(t, `{
		"name": "weekly",
		"outputMode": "INDIVIDUAL",
		"recordingLayout": "CUSTOM",
		"customLayout": "layouts/brand",
		"resolution": "1920x1080",
		"hasAudio": false,
		"hasVideo": false
	}`))
	if props == nil {
		t.Fatal("unexpected nil properties")
	}
	if props.Name != "weekly" || props.Resolution != "1920x1080" {
		t.Fatalf("unexpected properties: %+v", props)
	}
	if props.OutputMode != OutputModeIndividual || props.RecordingLayout != RecordingLayoutCustom {
		t.Fatalf("unexpected modes: %+v", props)
	}
	if props.CustomLayout != "layouts/brand" {
		t.Fatalf("unexpected custom layout %q", props.CustomLayout)
	}
	if props.HasAudio || props.HasVideo {
		t.Fatal("explicit false flags must survive")
	}
}

// TestRecordingPropertiesFromJSONNonObject verifies the nil result for
// payloads that are not JSON objects.
func TestRecordingPropertiesFromJSONNonObject(t *testing.T) {
	for _, raw := range []string{`"text"`, `42`, `[1,2]`, `null`, `true`} {
		if props := RecordingPropertiesFromJSON(decode(t, raw)); props != nil {
			t.Fatalf("payload %s should yield nil, got %+v", raw, props)
		}
	}
	if props := RecordingPropertiesFromJSON(nil); props != nil {
		t.Fatalf("nil payload should yield nil, got %+v", props)
	}
}

// TestSessionSnapshotFromJSON verifies the builder against a full session
// payload with nested connections and publishers.
func TestSessionSnapshotFromJSON(t *testing.T) {
	snapshot := sessionSnapshotFromJSON(decode(t, `{
		"sessionId": "meeting-1",
		"createdAt": 1700000000000,
		"mediaMode": "RELAYED",
		"recordingMode": "ALWAYS",
		"recording": true,
		"connections": {
			"numberOfElements": 1,
			"content": [{
				"connectionId": "con_1",
				"createdAt": 1700000000500,
				"role": "MODERATOR",
				"serverData": "user=1",
				"publishers": [{
					"streamId": "str_1",
					"mediaOptions": {"hasAudio": false, "videoActive": false, "frameRate": 25}
				}],
				"subscribers": ["str_2", {"streamId": "str_3"}]
			}]
		}
	}`))
	if snapshot == nil {
		t.Fatal("unexpected nil snapshot")
	}
	if snapshot.SessionID != "meeting-1" {
		t.Fatalf("unexpected session id %q", snapshot.SessionID)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !snapshot.CreatedAt.Equal(want) {
		t.Fatalf("expected created at %v, got %v", want, snapshot.CreatedAt)
	}
	if snapshot.Properties.MediaMode != MediaModeRelayed || snapshot.Properties.RecordingMode != RecordingModeAlways {
		t.Fatalf("unexpected properties: %+v", snapshot.Properties)
	}
	if !snapshot.Recording {
		t.Fatal("expected recording flag")
	}
	if len(snapshot.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(snapshot.Connections))
	}
	connection := snapshot.Connections[0]
	if connection.ConnectionID != "con_1" || connection.Role != RoleModerator || connection.ServerData != "user=1" {
		t.Fatalf("unexpected connection: %+v", connection)
	}
	if len(connection.Publishers) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(connection.Publishers))
	}
	publisher := connection.Publishers[0]
	if publisher.StreamID != "str_1" {
		t.Fatalf("unexpected stream id %q", publisher.StreamID)
	}
	if publisher.HasAudio || publisher.VideoActive {
		t.Fatalf("nested media options must win: %+v", publisher)
	}
	if !publisher.HasVideo || !publisher.AudioActive {
		t.Fatalf("missing media options must default to true: %+v", publisher)
	}
	if publisher.FrameRate != 25 {
		t.Fatalf("unexpected frame rate %v", publisher.FrameRate)
	}
	if got := connection.Subscribers; len(got) != 2 || got[0] != "str_2" || got[1] != "str_3" {
		t.Fatalf("unexpected subscribers: %v", got)
	}
}

// TestSessionSnapshotFromJSONIdentifierForms verifies that both identifier
// spellings are accepted and that an identifier-less payload yields nil.
func TestSessionSnapshotFromJSONIdentifierForms(t *testing.T) {
	if snapshot := sessionSnapshotFromJSON(decode(t, `{"id":"created-1","createdAt":1}`)); snapshot == nil || snapshot.SessionID != "created-1" {
		t.Fatalf("creation-style payload not accepted: %+v", snapshot)
	}
	if snapshot := sessionSnapshotFromJSON(decode(t, `{"sessionId":"queried-1"}`)); snapshot == nil || snapshot.SessionID != "queried-1" {
		t.Fatalf("query-style payload not accepted: %+v", snapshot)
	}
	if snapshot := sessionSnapshotFromJSON(decode(t, `{"createdAt":1}`)); snapshot != nil {
		t.Fatalf("identifier-less payload should yield nil, got %+v", snapshot)
	}
	if snapshot := sessionSnapshotFromJSON(decode(t, `[]`)); snapshot != nil {
		t.Fatalf("non-object payload should yield nil, got %+v", snapshot)
	}
}

// TestPublisherFromJSONFlattenedMediaOptions verifies the top-level
// fallback for servers that do not nest media options.
func TestPublisherFromJSONFlattenedMediaOptions(t *testing.T) {
	publisher := publisherFromJSON(decode(t, `{
		"streamId": "str_1",
		"hasAudio": false,
		"typeOfVideo": "CAMERA",
		"videoDimensions": "640x480"
	}`))
	if publisher == nil {
		t.Fatal("unexpected nil publisher")
	}
	if publisher.HasAudio {
		t.Fatal("flattened hasAudio must be honoured")
	}
	if publisher.TypeOfVideo != "CAMERA" || publisher.VideoDimensions != "640x480" {
		t.Fatalf("unexpected publisher: %+v", publisher)
	}
}

// TestRecordingFromJSON verifies recording construction including the
// regrouped properties and the nil cases.
func TestRecordingFromJSON(t *testing.T) {
	recording := recordingFromJSON(decode(t, `{
		"id": "rec-1",
		"sessionId": "meeting-1",
		"createdAt": 1700000000000,
		"size": 2048,
		"duration": 33.5,
		"url": "https://media/rec-1.mp4",
		"status": "ready",
		"name": "weekly",
		"hasVideo": false
	}`))
	if recording == nil {
		t.Fatal("unexpected nil recording")
	}
	if recording.ID != "rec-1" || recording.SessionID != "meeting-1" {
		t.Fatalf("unexpected recording: %+v", recording)
	}
	if recording.Size != 2048 || recording.Duration != 33.5 {
		t.Fatalf("unexpected size or duration: %+v", recording)
	}
	if recording.Status != RecordingReady {
		t.Fatalf("unexpected status %q", recording.Status)
	}
	if recording.Properties.Name != "weekly" || recording.Properties.HasVideo {
		t.Fatalf("unexpected properties: %+v", recording.Properties)
	}
	if recording.Properties.HasAudio != true {
		t.Fatal("missing hasAudio must default to true")
	}

	if recordingFromJSON(decode(t, `{"sessionId":"meeting-1"}`)) != nil {
		t.Fatal("identifier-less recording should yield nil")
	}
	if recordingFromJSON(decode(t, `"rec-1"`)) != nil {
		t.Fatal("non-object recording should yield nil")
	}
}

// TestTimeFieldMalformed verifies the zero-time fallback.
func TestTimeFieldMalformed(t *testing.T) {
	fields := map[string]any{"createdAt": "yesterday", "negative": float64(-5)}
	if got := timeField(fields, "createdAt"); !got.IsZero() {
		t.Fatalf("string timestamp should yield zero time, got %v", got)
	}
	if got := timeField(fields, "negative"); !got.IsZero() {
		t.Fatalf("negative timestamp should yield zero time, got %v", got)
	}
	if got := timeField(fields, "missing"); !got.IsZero() {
		t.Fatalf("missing timestamp should yield zero time, got %v", got)
	}
}
