package openvidustub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Options describes how the fake media server should behave.
type Options struct {
	// App and Secret are the expected basic-auth credentials. App defaults
	// to OPENVIDUAPP. An empty Secret disables the auth check.
	App    string
	Secret string

	// Scripted status overrides per endpoint. Zero means normal behaviour;
	// any other value is returned verbatim together with FailureBody.
	SessionCreateStatus   int
	SessionListStatus     int
	TokenStatus           int
	RecordingStartStatus  int
	RecordingStopStatus   int
	RecordingGetStatus    int
	RecordingListStatus   int
	RecordingDeleteStatus int

	// FailureBody is the response body sent with scripted statuses.
	FailureBody string
}

// Operation represents a recorded interaction with the fake server.
type Operation struct {
	Kind        string
	SessionID   string
	RecordingID string
	Status      int
	Timestamp   time.Time
}

type sessionState struct {
	id          string
	createdAt   int64
	properties  map[string]any
	connections []*connectionState
	recording   bool
}

type connectionState struct {
	id      string
	streams []string
}

type recordingState struct {
	id         string
	sessionID  string
	name       string
	createdAt  int64
	status     string
	outputMode string
	layout     string
	resolution string
	hasAudio   bool
	hasVideo   bool
	size       int64
	duration   float64
}

// Server hosts a single httptest.Server that serves the session, token,
// and recording endpoints of an OpenVidu-compatible media server.
type Server struct {
	server *httptest.Server
	opts   Options

	mu            sync.Mutex
	sessions      map[string]*sessionState
	recordings    map[string]*recordingState
	operations    []Operation
	sessionSeq    int
	connectionSeq int
	tokenSeq      int
}

// Start spins up a new fake media server using the provided options.
func Start(opts Options) *Server {
	if opts.App == "" {
		opts.App = "OPENVIDUAPP"
	}
	s := &Server{
		opts:       opts,
		sessions:   make(map[string]*sessionState),
		recordings: make(map[string]*recordingState),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Close shuts down the underlying HTTP server.
func (s *Server) Close() {
	if s.server != nil {
		s.server.Close()
	}
}

// BaseURL returns the HTTP base URL of the fake server. It carries a
// scheme, so it can be used directly as the client's Domain.
func (s *Server) BaseURL() string {
	return s.server.URL
}

// Operations returns a copy of all recorded interactions in order.
func (s *Server) Operations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	operations := make([]Operation, len(s.operations))
	copy(operations, s.operations)
	return operations
}

// HasSession reports whether the session exists on the fake server.
func (s *Server) HasSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// CreateRemoteSession registers a session as if another process had
// created it, for resync scenarios.
func (s *Server) CreateRemoteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return
	}
	s.sessions[id] = &sessionState{id: id, createdAt: time.Now().UnixMilli()}
}

// RemoveRemoteSession drops a session as if it had been destroyed outside
// the client under test.
func (s *Server) RemoveRemoteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// AddConnection attaches a fake participant to the session, publishing
// the given stream identifiers, and returns the connection identifier.
func (s *Server) AddConnection(sessionID string, streams ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ""
	}
	s.connectionSeq++
	connection := &connectionState{
		id:      fmt.Sprintf("con_%d", s.connectionSeq),
		streams: append([]string{}, streams...),
	}
	session.connections = append(session.connections, connection)
	return connection.id
}

// SetRecordingStatus forces the lifecycle state of a recording.
func (s *Server) SetRecordingStatus(recordingID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recording, ok := s.recordings[recordingID]; ok {
		recording.status = status
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodPost && path == "api/sessions":
		s.sessionCreate(w, r)
	case r.Method == http.MethodGet && path == "api/sessions":
		s.sessionList(w)
	case r.Method == http.MethodPost && path == "api/tokens":
		s.tokenCreate(w, r)
	case r.Method == http.MethodPost && path == "api/recordings/start":
		s.recordingStart(w, r)
	case r.Method == http.MethodPost && strings.HasPrefix(path, "api/recordings/stop/"):
		s.recordingStop(w, strings.TrimPrefix(path, "api/recordings/stop/"))
	case r.Method == http.MethodGet && path == "api/recordings":
		s.recordingList(w)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "api/recordings/"):
		s.recordingGet(w, strings.TrimPrefix(path, "api/recordings/"))
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "api/recordings/"):
		s.recordingDelete(w, strings.TrimPrefix(path, "api/recordings/"))
	case strings.HasPrefix(path, "api/sessions/"):
		s.sessionResource(w, r, strings.TrimPrefix(path, "api/sessions/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.opts.Secret == "" {
		return true
	}
	user, password, ok := r.BasicAuth()
	return ok && user == s.opts.App && password == s.opts.Secret
}

// scripted writes the configured override and records the operation.
// Reports whether an override was applied.
func (s *Server) scripted(w http.ResponseWriter, kind string, status int) bool {
	if status == 0 {
		return false
	}
	s.record(kind, "", "", status)
	w.WriteHeader(status)
	if s.opts.FailureBody != "" {
		fmt.Fprint(w, s.opts.FailureBody)
	}
	return true
}

func (s *Server) record(kind, sessionID, recordingID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations = append(s.operations, Operation{
		Kind:        kind,
		SessionID:   sessionID,
		RecordingID: recordingID,
		Status:      status,
		Timestamp:   time.Now(),
	})
}

func (s *Server) sessionCreate(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, "session.create", s.opts.SessionCreateStatus) {
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	id, _ := payload["customSessionId"].(string)
	if id == "" {
		s.sessionSeq++
		id = fmt.Sprintf("ses_%d", s.sessionSeq)
	} else if _, exists := s.sessions[id]; exists {
		s.mu.Unlock()
		s.record("session.create", id, "", http.StatusConflict)
		w.WriteHeader(http.StatusConflict)
		return
	}
	session := &sessionState{id: id, createdAt: time.Now().UnixMilli(), properties: payload}
	s.sessions[id] = session
	s.mu.Unlock()

	s.record("session.create", id, "", http.StatusOK)
	writeJSON(w, map[string]any{"id": id, "createdAt": session.createdAt})
}

func (s *Server) sessionList(w http.ResponseWriter) {
	if s.scripted(w, "session.list", s.opts.SessionListStatus) {
		return
	}
	s.mu.Lock()
	content := make([]any, 0, len(s.sessions))
	for _, session := range s.sessions {
		content = append(content, s.sessionJSON(session))
	}
	s.mu.Unlock()
	writeJSON(w, map[string]any{"numberOfElements": len(content), "content": content})
}

func (s *Server) sessionResource(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	sessionID := parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.mu.Lock()
		session, ok := s.sessions[sessionID]
		var body map[string]any
		if ok {
			body = s.sessionJSON(session)
		}
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, body)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.mu.Lock()
		_, ok := s.sessions[sessionID]
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		if !ok {
			s.record("session.close", sessionID, "", http.StatusNotFound)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.record("session.close", sessionID, "", http.StatusNoContent)
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 3 && parts[1] == "connection" && r.Method == http.MethodDelete:
		s.connectionDelete(w, sessionID, parts[2])
	case len(parts) == 3 && parts[1] == "stream" && r.Method == http.MethodDelete:
		s.streamDelete(w, sessionID, parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) connectionDelete(w http.ResponseWriter, sessionID, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for i, connection := range session.connections {
		if connection.id == connectionID {
			session.connections = append(session.connections[:i], session.connections[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) streamDelete(w http.ResponseWriter, sessionID, streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	for _, connection := range session.connections {
		for i, stream := range connection.streams {
			if stream == streamID {
				connection.streams = append(connection.streams[:i], connection.streams[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) tokenCreate(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, "token.create", s.opts.TokenStatus) {
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	sessionID, _ := payload["session"].(string)
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	s.tokenSeq++
	token := fmt.Sprintf("wss://localhost?sessionId=%s&token=tok_%d", sessionID, s.tokenSeq)
	s.mu.Unlock()
	if !ok {
		s.record("token.create", sessionID, "", http.StatusNotFound)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.record("token.create", sessionID, "", http.StatusOK)
	writeJSON(w, map[string]any{"id": token, "token": token, "session": sessionID})
}

func (s *Server) recordingStart(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, "recording.start", s.opts.RecordingStartStatus) {
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	sessionID, _ := payload["session"].(string)

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		s.record("recording.start", sessionID, "", http.StatusNotFound)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if session.recording {
		s.mu.Unlock()
		s.record("recording.start", sessionID, "", http.StatusConflict)
		w.WriteHeader(http.StatusConflict)
		return
	}
	if len(session.connections) == 0 {
		s.mu.Unlock()
		s.record("recording.start", sessionID, "", http.StatusNotAcceptable)
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	recordingID := sessionID
	for i := 1; ; i++ {
		if _, exists := s.recordings[recordingID]; !exists {
			break
		}
		recordingID = fmt.Sprintf("%s-%d", sessionID, i)
	}
	recording := &recordingState{
		id:         recordingID,
		sessionID:  sessionID,
		createdAt:  time.Now().UnixMilli(),
		status:     "started",
		hasAudio:   boolOr(payload, "hasAudio", true),
		hasVideo:   boolOr(payload, "hasVideo", true),
		outputMode: stringOr(payload, "outputMode", "COMPOSED"),
		layout:     stringOr(payload, "recordingLayout", "BEST_FIT"),
		resolution: stringOr(payload, "resolution", ""),
		name:       stringOr(payload, "name", recordingID),
	}
	s.recordings[recordingID] = recording
	session.recording = true
	body := recordingJSON(recording)
	s.mu.Unlock()

	s.record("recording.start", sessionID, recordingID, http.StatusOK)
	writeJSON(w, body)
}

func (s *Server) recordingStop(w http.ResponseWriter, recordingID string) {
	if s.scripted(w, "recording.stop", s.opts.RecordingStopStatus) {
		return
	}
	s.mu.Lock()
	recording, ok := s.recordings[recordingID]
	if !ok {
		s.mu.Unlock()
		s.record("recording.stop", "", recordingID, http.StatusNotFound)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if recording.status == "starting" {
		s.mu.Unlock()
		s.record("recording.stop", recording.sessionID, recordingID, http.StatusNotAcceptable)
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	recording.status = "stopped"
	recording.size = 4096
	recording.duration = 12.5
	if session, ok := s.sessions[recording.sessionID]; ok {
		session.recording = false
	}
	body := recordingJSON(recording)
	s.mu.Unlock()

	s.record("recording.stop", recording.sessionID, recordingID, http.StatusOK)
	writeJSON(w, body)
}

func (s *Server) recordingGet(w http.ResponseWriter, recordingID string) {
	if s.scripted(w, "recording.get", s.opts.RecordingGetStatus) {
		return
	}
	s.mu.Lock()
	recording, ok := s.recordings[recordingID]
	var body map[string]any
	if ok {
		body = recordingJSON(recording)
	}
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, body)
}

func (s *Server) recordingList(w http.ResponseWriter) {
	if s.scripted(w, "recording.list", s.opts.RecordingListStatus) {
		return
	}
	s.mu.Lock()
	items := make([]any, 0, len(s.recordings))
	for _, recording := range s.recordings {
		items = append(items, recordingJSON(recording))
	}
	s.mu.Unlock()
	writeJSON(w, map[string]any{"count": len(items), "items": items})
}

func (s *Server) recordingDelete(w http.ResponseWriter, recordingID string) {
	if s.scripted(w, "recording.delete", s.opts.RecordingDeleteStatus) {
		return
	}
	s.mu.Lock()
	recording, ok := s.recordings[recordingID]
	if !ok {
		s.mu.Unlock()
		s.record("recording.delete", "", recordingID, http.StatusNotFound)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if recording.status == "started" || recording.status == "starting" {
		s.mu.Unlock()
		s.record("recording.delete", recording.sessionID, recordingID, http.StatusConflict)
		w.WriteHeader(http.StatusConflict)
		return
	}
	delete(s.recordings, recordingID)
	s.mu.Unlock()

	s.record("recording.delete", recording.sessionID, recordingID, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// sessionJSON renders a session resource. Callers must hold s.mu.
func (s *Server) sessionJSON(session *sessionState) map[string]any {
	content := make([]any, 0, len(session.connections))
	for _, connection := range session.connections {
		publishers := make([]any, 0, len(connection.streams))
		for _, stream := range connection.streams {
			publishers = append(publishers, map[string]any{
				"streamId":  stream,
				"createdAt": session.createdAt,
				"mediaOptions": map[string]any{
					"hasAudio": true, "hasVideo": true,
					"audioActive": true, "videoActive": true,
				},
			})
		}
		content = append(content, map[string]any{
			"connectionId": connection.id,
			"createdAt":    session.createdAt,
			"role":         "PUBLISHER",
			"publishers":   publishers,
		})
	}
	body := map[string]any{
		"sessionId": session.id,
		"createdAt": session.createdAt,
		"recording": session.recording,
		"connections": map[string]any{
			"numberOfElements": len(content),
			"content":          content,
		},
	}
	for key, value := range session.properties {
		body[key] = value
	}
	return body
}

func recordingJSON(recording *recordingState) map[string]any {
	return map[string]any{
		"id":              recording.id,
		"sessionId":       recording.sessionID,
		"name":            recording.name,
		"createdAt":       recording.createdAt,
		"status":          recording.status,
		"outputMode":      recording.outputMode,
		"recordingLayout": recording.layout,
		"resolution":      recording.resolution,
		"hasAudio":        recording.hasAudio,
		"hasVideo":        recording.hasVideo,
		"size":            recording.size,
		"duration":        recording.duration,
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func stringOr(payload map[string]any, key, fallback string) string {
	if value, ok := payload[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func boolOr(payload map[string]any, key string, fallback bool) bool {
	if value, ok := payload[key].(bool); ok {
		return value
	}
	return fallback
}
