// Package openvidu is a server-side SDK for OpenVidu-compatible media
// servers. It drives the server's REST API (session creation, token
// generation, recording lifecycle, connection management) and mirrors the
// remote resources in a process-local active-session cache.
//
// # Client and cache
//
// A Client is the single entry point. Every remote operation blocks until
// the HTTP round trip completes and surfaces any non-success response
// immediately as a typed error; nothing is retried or suppressed.
//
// The Client owns a map of active sessions keyed by session identifier.
// The map reflects last-known state, not necessarily current remote truth:
// it is only updated by the mutating operations documented on Client and
// Session, by an explicit Fetch, or by NotifySessionDeleted. Callers that
// need fresh state must call Fetch (or Session.Fetch) themselves.
//
//	client, err := openvidu.NewClient(cfg)
//	...
//	session, err := client.CreateSession(ctx, nil)
//	...
//	recording, err := client.StartRecording(ctx, session.ID(), nil)
//
// # Error taxonomy
//
// Enumerated remote failures map to sentinel errors (ErrSessionNotFound,
// ErrRecordingNotFound, ...) that match with errors.Is. Any status code
// outside the enumerated set becomes a *ServerError carrying the remote
// status and, when the response body supplies one, the remote message.
// Localize translates taxonomy errors into human-readable messages.
//
// # Session mirror
//
// An optional SessionMirror receives a JSON snapshot of every cache
// mutation so that other processes can observe last-known session state.
// RedisMirror is the provided implementation. The in-process map remains
// authoritative; the mirror never affects lookup semantics.
package openvidu
