package webhook

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/renepardon/LaravelOpenVidu/openvidu"
)

// maxBodySize bounds a single callback payload.
const maxBodySize = 1 << 20

// HandlerConfig configures the HTTP intake for server callbacks.
type HandlerConfig struct {
	// Dispatcher receives every parsed event. Required.
	Dispatcher *Dispatcher

	// Token, when set, must match the Authorization header of incoming
	// callbacks verbatim (the server sends whatever header value it was
	// configured with).
	Token string

	// Logger for rejected and malformed callbacks. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Handler accepts POST callbacks from the media server, parses them, and
// feeds the dispatcher.
type Handler struct {
	dispatcher *Dispatcher
	token      string
	logger     *slog.Logger
}

// NewHandler builds the callback intake. It panics when no dispatcher is
// supplied, since a handler without one silently drops every event.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Dispatcher == nil {
		panic("webhook: dispatcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dispatcher: cfg.Dispatcher, token: cfg.Token, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.token != "" {
		supplied := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
			h.logger.Warn("webhook callback rejected", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	event, err := ParseEvent(body)
	if err != nil {
		h.logger.Warn("malformed webhook callback", "error", err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	h.dispatcher.Dispatch(event)
	w.WriteHeader(http.StatusOK)
}

// BindSessionCache keeps a client's active-session cache consistent with
// the server: a destroyed session is evicted as soon as its event arrives.
func BindSessionCache(d *Dispatcher, client *openvidu.Client) {
	d.Subscribe(TypeSessionDestroyed, func(event Event) {
		if event.SessionID != "" {
			client.NotifySessionDeleted(event.SessionID)
		}
	})
}
