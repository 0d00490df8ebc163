package openvidu

import "time"

// Connection mirrors a participant connected to a remote session. It is a
// last-known value object: it only changes when the owning Session is
// refreshed or one of its mutating operations succeeds.
type Connection struct {
	// ConnectionID identifies the participant within its session.
	ConnectionID string `json:"connectionId"`

	// CreatedAt is the server-side creation time of the connection.
	CreatedAt time.Time `json:"createdAt"`

	// Token the participant used to connect.
	Token string `json:"token,omitempty"`

	// Role granted to the participant.
	Role Role `json:"role"`

	// Location is the approximate geo location reported by the server.
	Location string `json:"location,omitempty"`

	// Platform is the client platform description (browser, SDK, ...).
	Platform string `json:"platform,omitempty"`

	// ServerData is the metadata attached when the token was generated.
	ServerData string `json:"serverData,omitempty"`

	// ClientData is the metadata supplied by the client on join.
	ClientData string `json:"clientData,omitempty"`

	// Publishers lists the streams the participant is publishing.
	Publishers []Publisher `json:"publishers,omitempty"`

	// Subscribers lists the stream identifiers the participant receives.
	Subscribers []string `json:"subscribers,omitempty"`
}

// Publisher mirrors a media stream published into a session.
type Publisher struct {
	// StreamID identifies the published stream.
	StreamID string `json:"streamId"`

	// CreatedAt is the server-side publication time.
	CreatedAt time.Time `json:"createdAt"`

	// HasAudio and HasVideo report which tracks the stream carries.
	HasAudio bool `json:"hasAudio"`
	HasVideo bool `json:"hasVideo"`

	// AudioActive and VideoActive report whether the tracks are currently
	// transmitting.
	AudioActive bool `json:"audioActive"`
	VideoActive bool `json:"videoActive"`

	// FrameRate of the video track.
	FrameRate float64 `json:"frameRate,omitempty"`

	// TypeOfVideo is the source kind reported by the publisher (CAMERA,
	// SCREEN, ...).
	TypeOfVideo string `json:"typeOfVideo,omitempty"`

	// VideoDimensions is the video resolution as published.
	VideoDimensions string `json:"videoDimensions,omitempty"`
}
