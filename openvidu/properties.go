package openvidu

// MediaMode selects how media is routed between participants.
type MediaMode string

const (
	// MediaModeRouted relays every stream through the media server. Only
	// routed sessions can be recorded.
	MediaModeRouted MediaMode = "ROUTED"
	// MediaModeRelayed lets participants exchange media peer-to-peer.
	MediaModeRelayed MediaMode = "RELAYED"
)

// RecordingMode selects when sessions are recorded.
type RecordingMode string

const (
	// RecordingModeAlways starts recording as soon as the session is live.
	RecordingModeAlways RecordingMode = "ALWAYS"
	// RecordingModeManual records only on explicit StartRecording calls.
	RecordingModeManual RecordingMode = "MANUAL"
)

// OutputMode selects the layout of recorded media files.
type OutputMode string

const (
	// OutputModeComposed mixes every stream into a single file.
	OutputModeComposed OutputMode = "COMPOSED"
	// OutputModeIndividual records one file per published stream.
	OutputModeIndividual OutputMode = "INDIVIDUAL"
)

// RecordingLayout selects the visual arrangement of composed recordings.
type RecordingLayout string

const (
	RecordingLayoutBestFit RecordingLayout = "BEST_FIT"
	RecordingLayoutCustom  RecordingLayout = "CUSTOM"
)

// Role bounds what a connection token allows.
type Role string

const (
	RoleSubscriber Role = "SUBSCRIBER"
	RolePublisher  Role = "PUBLISHER"
	RoleModerator  Role = "MODERATOR"
)

// RecordingStatus is the lifecycle state of a recording as reported by
// the server.
type RecordingStatus string

const (
	// RecordingStarting means the recording is initializing and cannot be
	// stopped yet.
	RecordingStarting RecordingStatus = "starting"
	// RecordingStarted means media is being written. Started recordings
	// cannot be deleted.
	RecordingStarted RecordingStatus = "started"
	// RecordingStopped means the recording ended but the file is still
	// being processed.
	RecordingStopped RecordingStatus = "stopped"
	// RecordingReady means the file is available for download.
	RecordingReady RecordingStatus = "ready"
	// RecordingFailed means the recording ended with an error.
	RecordingFailed RecordingStatus = "failed"
)

// SessionProperties parameterizes session creation.
type SessionProperties struct {
	// MediaMode for the new session. Defaults to MediaModeRouted.
	MediaMode MediaMode `json:"mediaMode"`

	// RecordingMode for the new session. Defaults to RecordingModeManual.
	RecordingMode RecordingMode `json:"recordingMode"`

	// DefaultOutputMode applies to recordings that do not specify one.
	// Defaults to OutputModeComposed.
	DefaultOutputMode OutputMode `json:"defaultOutputMode"`

	// DefaultRecordingLayout applies to composed recordings that do not
	// specify one. Defaults to RecordingLayoutBestFit.
	DefaultRecordingLayout RecordingLayout `json:"defaultRecordingLayout"`

	// DefaultCustomLayout is the relative path of the layout used when
	// DefaultRecordingLayout is RecordingLayoutCustom.
	DefaultCustomLayout string `json:"defaultCustomLayout,omitempty"`

	// CustomSessionID fixes the identifier of the new session instead of
	// letting the server generate one.
	CustomSessionID string `json:"customSessionId,omitempty"`
}

// DefaultSessionProperties returns SessionProperties with every optional
// field resolved to its documented default.
func DefaultSessionProperties() SessionProperties {
	return SessionProperties{
		MediaMode:              MediaModeRouted,
		RecordingMode:          RecordingModeManual,
		DefaultOutputMode:      OutputModeComposed,
		DefaultRecordingLayout: RecordingLayoutBestFit,
	}
}

// withDefaults fills zero-valued fields with the documented defaults.
func (p SessionProperties) withDefaults() SessionProperties {
	defaults := DefaultSessionProperties()
	if p.MediaMode == "" {
		p.MediaMode = defaults.MediaMode
	}
	if p.RecordingMode == "" {
		p.RecordingMode = defaults.RecordingMode
	}
	if p.DefaultOutputMode == "" {
		p.DefaultOutputMode = defaults.DefaultOutputMode
	}
	if p.DefaultRecordingLayout == "" {
		p.DefaultRecordingLayout = defaults.DefaultRecordingLayout
	}
	return p
}

// RecordingProperties parameterizes StartRecording and describes the
// effective properties of an existing Recording. Immutable once built.
type RecordingProperties struct {
	// Name of the resulting file. The server falls back to the recording
	// identifier when empty.
	Name string `json:"name,omitempty"`

	// OutputMode of the recording. Defaults to OutputModeComposed.
	OutputMode OutputMode `json:"outputMode"`

	// RecordingLayout of composed recordings. Defaults to
	// RecordingLayoutBestFit.
	RecordingLayout RecordingLayout `json:"recordingLayout"`

	// CustomLayout is the relative path of the layout used when
	// RecordingLayout is RecordingLayoutCustom. The server reports the
	// routed media-mode tag when no custom layout was configured.
	CustomLayout string `json:"customLayout,omitempty"`

	// Resolution of composed recordings, "WIDTHxHEIGHT". Empty delegates
	// the choice to the server.
	Resolution string `json:"resolution,omitempty"`

	// HasAudio selects whether the recording includes audio. Defaults to
	// true.
	HasAudio bool `json:"hasAudio"`

	// HasVideo selects whether the recording includes video. Defaults to
	// true.
	HasVideo bool `json:"hasVideo"`
}

// DefaultRecordingProperties returns RecordingProperties with every
// optional field resolved to its documented default.
func DefaultRecordingProperties() RecordingProperties {
	return RecordingProperties{
		OutputMode:      OutputModeComposed,
		RecordingLayout: RecordingLayoutBestFit,
		CustomLayout:    string(MediaModeRouted),
		HasAudio:        true,
		HasVideo:        true,
	}
}

// TokenOptions parameterizes Session.GenerateToken.
type TokenOptions struct {
	// Role granted to the connection. Defaults to RolePublisher.
	Role Role `json:"role"`

	// Data is arbitrary server-side metadata attached to the connection.
	Data string `json:"data,omitempty"`
}
