package openvidu

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"
)

// Session mirrors a remote videoconferencing session. Sessions are created
// through Client.CreateSession and shared by reference with callers; only
// the owning Client inserts or removes cache entries. A Session's state is
// last-known: call Fetch to resync it with the server.
type Session struct {
	client *Client

	mu          sync.RWMutex
	id          string
	createdAt   time.Time
	properties  SessionProperties
	connections []Connection
	recording   bool
}

func newSession(client *Client, snapshot SessionSnapshot) *Session {
	session := &Session{client: client, id: snapshot.SessionID}
	session.apply(snapshot)
	return session
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the server-side creation time of the session.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// Properties returns the session properties with defaults resolved.
func (s *Session) Properties() SessionProperties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.properties
}

// IsBeingRecorded reports whether the session was being recorded the last
// time its state was refreshed.
func (s *Session) IsBeingRecorded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

// ActiveConnections returns a copy of the last-known participant list.
func (s *Session) ActiveConnections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConnections(s.connections)
}

// cloneConnections deep-copies the participant list so callers and mirror
// snapshots cannot alias the live slices.
func cloneConnections(connections []Connection) []Connection {
	if len(connections) == 0 {
		return nil
	}
	cloned := make([]Connection, len(connections))
	copy(cloned, connections)
	for i := range cloned {
		if len(cloned[i].Publishers) > 0 {
			publishers := make([]Publisher, len(cloned[i].Publishers))
			copy(publishers, cloned[i].Publishers)
			cloned[i].Publishers = publishers
		}
		if len(cloned[i].Subscribers) > 0 {
			subscribers := make([]string, len(cloned[i].Subscribers))
			copy(subscribers, cloned[i].Subscribers)
			cloned[i].Subscribers = subscribers
		}
	}
	return cloned
}

// snapshot captures the session state for mirroring and comparison.
func (s *Session) snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		SessionID:   s.id,
		CreatedAt:   s.createdAt,
		Properties:  s.properties,
		Connections: cloneConnections(s.connections),
		Recording:   s.recording,
	}
}

// apply replaces the session state with the snapshot and reports whether
// anything changed.
func (s *Session) apply(snapshot SessionSnapshot) bool {
	current := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdAt = snapshot.CreatedAt
	s.properties = snapshot.Properties
	s.connections = cloneConnections(snapshot.Connections)
	s.recording = snapshot.Recording
	return !reflect.DeepEqual(current, snapshot)
}

func (s *Session) setRecording(recording bool) {
	s.mu.Lock()
	s.recording = recording
	s.mu.Unlock()
}

// Fetch resyncs the session with the server and reports whether the local
// state changed. A session deleted on the server side is removed from the
// client cache and surfaced as ErrSessionNotFound.
func (s *Session) Fetch(ctx context.Context) (bool, error) {
	status, body, err := s.client.do(ctx, http.MethodGet, sessionPath(s.id), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		snapshot := sessionSnapshotFromJSON(decodeJSON(body))
		if snapshot == nil {
			return false, fmt.Errorf("session %s: malformed session payload", s.id)
		}
		changed := s.apply(*snapshot)
		if changed {
			s.client.mirrorSave(ctx, s)
		}
		return changed, nil
	case http.StatusNotFound:
		s.client.evict(ctx, s.id)
		return false, fmt.Errorf("session %s: %w", s.id, ErrSessionNotFound)
	default:
		return false, serverError(status, body)
	}
}

// Close destroys the session on the server and removes it from the client
// cache. The cache entry is dropped even when the server reports the
// session as already gone.
func (s *Session) Close(ctx context.Context) error {
	status, body, err := s.client.do(ctx, http.MethodDelete, sessionPath(s.id), nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		s.client.evict(ctx, s.id)
		return nil
	case http.StatusNotFound:
		s.client.evict(ctx, s.id)
		return fmt.Errorf("session %s: %w", s.id, ErrSessionNotFound)
	default:
		return serverError(status, body)
	}
}

// ForceDisconnect evicts a participant from the session. On success the
// connection is pruned from the local participant list.
func (s *Session) ForceDisconnect(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return fmt.Errorf("connection id is required")
	}
	path := fmt.Sprintf("%s/connection/%s", sessionPath(s.id), connectionID)
	status, body, err := s.client.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		s.removeConnection(connectionID)
		s.client.mirrorSave(ctx, s)
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("session %s: %w", s.id, ErrSessionNotFound)
	case http.StatusNotFound:
		return fmt.Errorf("connection %s: %w", connectionID, ErrConnectionNotFound)
	default:
		return serverError(status, body)
	}
}

// ForceUnpublish stops a published stream for every subscriber. On success
// the publisher is pruned from the local participant list.
func (s *Session) ForceUnpublish(ctx context.Context, streamID string) error {
	if streamID == "" {
		return fmt.Errorf("stream id is required")
	}
	path := fmt.Sprintf("%s/stream/%s", sessionPath(s.id), streamID)
	status, body, err := s.client.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		s.removePublisher(streamID)
		s.client.mirrorSave(ctx, s)
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("session %s: %w", s.id, ErrSessionNotFound)
	case http.StatusNotFound:
		return fmt.Errorf("stream %s: %w", streamID, ErrStreamNotFound)
	default:
		return serverError(status, body)
	}
}

// GenerateToken creates a connection token for the session. Nil options
// default to a publisher token without metadata.
func (s *Session) GenerateToken(ctx context.Context, options *TokenOptions) (string, error) {
	role := RolePublisher
	data := ""
	if options != nil {
		if options.Role != "" {
			role = options.Role
		}
		data = options.Data
	}
	payload := map[string]any{
		"session": s.id,
		"role":    string(role),
	}
	if data != "" {
		payload["data"] = data
	}
	status, body, err := s.client.do(ctx, http.MethodPost, tokensPath, payload)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
		fields, ok := decodeJSON(body).(map[string]any)
		if !ok {
			return "", fmt.Errorf("session %s: malformed token payload", s.id)
		}
		token := stringField(fields, "token", stringField(fields, "id", ""))
		if token == "" {
			return "", fmt.Errorf("session %s: token missing from response", s.id)
		}
		return token, nil
	case http.StatusNotFound:
		return "", fmt.Errorf("session %s: %w", s.id, ErrSessionNotFound)
	default:
		return "", serverError(status, body)
	}
}

func (s *Session) removeConnection(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.connections[:0]
	for _, connection := range s.connections {
		if connection.ConnectionID != connectionID {
			kept = append(kept, connection)
		}
	}
	s.connections = kept
}

func (s *Session) removePublisher(streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.connections {
		kept := s.connections[i].Publishers[:0]
		for _, publisher := range s.connections[i].Publishers {
			if publisher.StreamID != streamID {
				kept = append(kept, publisher)
			}
		}
		s.connections[i].Publishers = kept
	}
}
