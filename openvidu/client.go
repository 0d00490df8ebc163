package openvidu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Relative REST endpoint paths.
const (
	sessionsPath        = "api/sessions"
	tokensPath          = "api/tokens"
	recordingsPath      = "api/recordings"
	recordingsStartPath = "api/recordings/start"
	recordingsStopPath  = "api/recordings/stop"
)

const defaultHTTPTimeout = 30 * time.Second

func sessionPath(id string) string {
	return fmt.Sprintf("%s/%s", sessionsPath, id)
}

// Client is the entry point to a media server. It owns the HTTP transport,
// the active-session cache, and the optional session mirror. A Client is
// safe for concurrent use.
type Client struct {
	app        string
	secret     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	debug      bool
	cache      *sessionCache
	mirror     SessionMirror
}

// NewClient validates the configuration and returns a Client. No remote
// call is made; the first operation establishes connectivity.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("openvidu config: %w", err)
	}

	app := cfg.App
	if app == "" {
		app = DefaultApp
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport
		if cfg.InsecureSkipVerify {
			transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
		}
		httpClient = &http.Client{Timeout: defaultHTTPTimeout, Transport: transport}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		app:        app,
		secret:     cfg.Secret,
		baseURL:    cfg.baseURL(),
		httpClient: httpClient,
		logger:     logger,
		debug:      cfg.Debug,
		cache:      newSessionCache(),
		mirror:     cfg.Mirror,
	}, nil
}

// CreateSession creates a session on the server and registers it in the
// active-session cache. Nil properties use the documented defaults.
func (c *Client) CreateSession(ctx context.Context, properties *SessionProperties) (*Session, error) {
	props := DefaultSessionProperties()
	if properties != nil {
		props = properties.withDefaults()
	}
	status, body, err := c.do(ctx, http.MethodPost, sessionsPath, props)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		snapshot := sessionSnapshotFromJSON(decodeJSON(body))
		if snapshot == nil {
			return nil, fmt.Errorf("create session: malformed session payload")
		}
		snapshot.Properties = props
		session := newSession(c, *snapshot)
		c.cache.put(session)
		c.mirrorSave(ctx, session)
		return session, nil
	case http.StatusConflict:
		id := props.CustomSessionID
		if id == "" {
			id = "unnamed"
		}
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionAlreadyExists)
	default:
		return nil, serverError(status, body)
	}
}

// GetSession looks the session up in the local cache without any remote
// call. Callers needing fresh state must use Fetch or Session.Fetch. The
// returned pointer is the same object registered at creation time, until a
// cache mutation removes it.
func (c *Client) GetSession(id string) (*Session, error) {
	session, ok := c.cache.get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return session, nil
}

// GetActiveSessions returns a snapshot of the active-session cache. The
// result reflects last-known state and may be stale.
func (c *Client) GetActiveSessions() []*Session {
	return c.cache.snapshot()
}

// Fetch resyncs the whole active-session cache against the server: every
// remote session is refreshed or inserted, and cached sessions the server
// no longer reports are dropped. Reports whether anything changed.
func (c *Client) Fetch(ctx context.Context) (bool, error) {
	status, body, err := c.do(ctx, http.MethodGet, sessionsPath, nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, serverError(status, body)
	}
	fields, ok := decodeJSON(body).(map[string]any)
	if !ok {
		return false, fmt.Errorf("fetch sessions: malformed collection payload")
	}
	content, _ := fields["content"].([]any)

	changed := false
	remote := make(map[string]struct{}, len(content))
	for _, item := range content {
		snapshot := sessionSnapshotFromJSON(item)
		if snapshot == nil {
			continue
		}
		remote[snapshot.SessionID] = struct{}{}
		if session, ok := c.cache.get(snapshot.SessionID); ok {
			if session.apply(*snapshot) {
				c.mirrorSave(ctx, session)
				changed = true
			}
			continue
		}
		session := newSession(c, *snapshot)
		c.cache.put(session)
		c.mirrorSave(ctx, session)
		changed = true
	}
	for _, id := range c.cache.ids() {
		if _, ok := remote[id]; !ok {
			c.evict(ctx, id)
			changed = true
		}
	}
	return changed, nil
}

// StartRecording starts recording a session. Nil properties use the
// documented defaults. On success the cached session, when present, is
// marked as being recorded.
func (c *Client) StartRecording(ctx context.Context, sessionID string, properties *RecordingProperties) (*Recording, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	props := DefaultRecordingProperties()
	if properties != nil {
		props = *properties
	}
	payload := map[string]any{
		"session":         sessionID,
		"outputMode":      string(props.OutputMode),
		"recordingLayout": string(props.RecordingLayout),
		"hasAudio":        props.HasAudio,
		"hasVideo":        props.HasVideo,
	}
	if props.Name != "" {
		payload["name"] = props.Name
	}
	if props.CustomLayout != "" {
		payload["customLayout"] = props.CustomLayout
	}
	if props.Resolution != "" {
		payload["resolution"] = props.Resolution
	}

	status, body, err := c.do(ctx, http.MethodPost, recordingsStartPath, payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		recording := recordingFromJSON(decodeJSON(body))
		if recording == nil {
			return nil, fmt.Errorf("start recording: malformed recording payload")
		}
		if session, ok := c.cache.get(recording.SessionID); ok {
			session.setRecording(true)
			c.mirrorSave(ctx, session)
		}
		return recording, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	case http.StatusNotAcceptable:
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNoConnectedParticipants)
	case http.StatusConflict:
		return nil, fmt.Errorf("session %s: media mode is not routed or the session is already being recorded: %w", sessionID, ErrSessionNotRecordable)
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("resolution %q: %w", props.Resolution, ErrInvalidResolution)
	case http.StatusNotImplemented:
		return nil, ErrRecordingDisabled
	default:
		return nil, serverError(status, body)
	}
}

// StopRecording stops a recording. On success the owning cached session,
// when present, is no longer marked as being recorded.
func (c *Client) StopRecording(ctx context.Context, recordingID string) (*Recording, error) {
	if recordingID == "" {
		return nil, fmt.Errorf("recording id is required")
	}
	path := fmt.Sprintf("%s/%s", recordingsStopPath, recordingID)
	status, body, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		recording := recordingFromJSON(decodeJSON(body))
		if recording == nil {
			return nil, fmt.Errorf("stop recording: malformed recording payload")
		}
		if session, ok := c.cache.get(recording.SessionID); ok {
			session.setRecording(false)
			c.mirrorSave(ctx, session)
		}
		return recording, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("recording %s: %w", recordingID, ErrRecordingNotFound)
	case http.StatusNotAcceptable:
		return nil, fmt.Errorf("recording %s has not reached started status yet: %w", recordingID, ErrRecordingStatusConflict)
	default:
		return nil, serverError(status, body)
	}
}

// GetRecording retrieves a recording from the server.
func (c *Client) GetRecording(ctx context.Context, recordingID string) (*Recording, error) {
	if recordingID == "" {
		return nil, fmt.Errorf("recording id is required")
	}
	path := fmt.Sprintf("%s/%s", recordingsPath, recordingID)
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		recording := recordingFromJSON(decodeJSON(body))
		if recording == nil {
			return nil, fmt.Errorf("get recording: malformed recording payload")
		}
		return recording, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("recording %s: %w", recordingID, ErrRecordingNotFound)
	default:
		return nil, serverError(status, body)
	}
}

// GetRecordings retrieves every recording known to the server.
func (c *Client) GetRecordings(ctx context.Context) ([]*Recording, error) {
	status, body, err := c.do(ctx, http.MethodGet, recordingsPath, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, serverError(status, body)
	}
	fields, ok := decodeJSON(body).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get recordings: malformed collection payload")
	}
	items, _ := fields["items"].([]any)
	recordings := make([]*Recording, 0, len(items))
	for _, item := range items {
		if recording := recordingFromJSON(item); recording != nil {
			recordings = append(recordings, recording)
		}
	}
	return recordings, nil
}

// DeleteRecording deletes a recording from the server. Only stopped,
// ready, or failed recordings can be deleted.
func (c *Client) DeleteRecording(ctx context.Context, recordingID string) error {
	if recordingID == "" {
		return fmt.Errorf("recording id is required")
	}
	path := fmt.Sprintf("%s/%s", recordingsPath, recordingID)
	status, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("recording %s: %w", recordingID, ErrRecordingNotFound)
	case http.StatusConflict:
		return fmt.Errorf("recording %s is still started, stop it before deleting: %w", recordingID, ErrRecordingStatusConflict)
	default:
		return serverError(status, body)
	}
}

// NotifySessionDeleted removes a session from the active-session cache.
// It is the intake for session-deletion events observed outside the
// client, typically wired to a webhook dispatcher.
func (c *Client) NotifySessionDeleted(sessionID string) {
	c.evict(context.Background(), sessionID)
}

// RestoreSessions seeds the active-session cache from the configured
// mirror and returns the number of sessions restored. Cached sessions are
// left untouched; only identifiers absent from the cache are restored.
func (c *Client) RestoreSessions(ctx context.Context) (int, error) {
	if c.mirror == nil {
		return 0, fmt.Errorf("no session mirror configured")
	}
	snapshots, err := c.mirror.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore sessions: %w", err)
	}
	restored := 0
	for _, snapshot := range snapshots {
		if snapshot.SessionID == "" {
			continue
		}
		if _, ok := c.cache.get(snapshot.SessionID); ok {
			continue
		}
		c.cache.put(newSession(c, snapshot))
		restored++
	}
	return restored, nil
}

// evict removes a session from the cache and the mirror.
func (c *Client) evict(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	removed := c.cache.remove(sessionID)
	if removed && c.debug {
		c.logger.Debug("session evicted from cache", "session", sessionID)
	}
	if c.mirror != nil {
		if err := c.mirror.Delete(ctx, sessionID); err != nil {
			c.logger.Warn("session mirror delete failed", "session", sessionID, "error", err)
		}
	}
}

// mirrorSave pushes the session snapshot to the mirror, when configured.
// Mirror failures are advisory and never surface to the caller.
func (c *Client) mirrorSave(ctx context.Context, session *Session) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Save(ctx, session.snapshot()); err != nil {
		c.logger.Warn("session mirror save failed", "session", session.ID(), "error", err)
	}
}

// do performs one HTTP round trip against the server and returns the
// status code and response body. Transport failures are returned as
// errors; HTTP-level failures are left to the caller's status dispatch.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var requestBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: marshal request: %w", method, path, err)
		}
		requestBody = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	request.SetBasicAuth(c.app, c.secret)
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if c.debug {
		c.logger.Debug("openvidu request",
			"method", method,
			"path", path,
			"status", response.StatusCode,
			"duration", time.Since(start),
		)
	}
	return response.StatusCode, body, nil
}

// decodeJSON decodes a response body for the builders. Malformed JSON
// yields nil, which the builders treat as an absent payload.
func decodeJSON(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}
	return decoded
}
