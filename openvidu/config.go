package openvidu

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// DefaultApp is the basic-auth username expected by stock server
// deployments.
const DefaultApp = "OPENVIDUAPP"

// DefaultPort is the HTTPS port stock server deployments listen on.
const DefaultPort = 4443

// Config stores connectivity information for the media server.
type Config struct {
	// App is the basic-auth username. Defaults to DefaultApp when empty.
	App string

	// Secret is the shared secret configured on the media server.
	Secret string

	// Domain is the host the server is reachable at. A bare host name is
	// addressed over HTTPS; a value containing a scheme is used as-is.
	Domain string

	// Port the server listens on. Defaults to DefaultPort when zero.
	Port int

	// Debug enables logging of every HTTP round trip at debug level.
	Debug bool

	// InsecureSkipVerify disables TLS certificate verification. Intended
	// for deployments running with self-signed certificates.
	InsecureSkipVerify bool

	// HTTPClient overrides the transport used for all requests. When set,
	// InsecureSkipVerify is ignored; the caller owns TLS behaviour.
	HTTPClient *http.Client

	// Logger receives debug and mirror logging. Defaults to slog.Default.
	Logger *slog.Logger

	// Mirror optionally receives a snapshot of every active-session cache
	// mutation. See SessionMirror.
	Mirror SessionMirror
}

// ConfigFromEnv initialises a Config from OPENVIDU_* environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		App:    strings.TrimSpace(os.Getenv("OPENVIDU_APP")),
		Secret: strings.TrimSpace(os.Getenv("OPENVIDU_SECRET")),
		Domain: strings.TrimSpace(os.Getenv("OPENVIDU_DOMAIN")),
	}

	if port := strings.TrimSpace(os.Getenv("OPENVIDU_PORT")); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("parse OPENVIDU_PORT: %w", err)
		}
		cfg.Port = parsed
	}

	if debug := strings.TrimSpace(os.Getenv("OPENVIDU_DEBUG")); debug != "" {
		parsed, err := strconv.ParseBool(debug)
		if err != nil {
			return Config{}, fmt.Errorf("parse OPENVIDU_DEBUG: %w", err)
		}
		cfg.Debug = parsed
	}

	if insecure := strings.TrimSpace(os.Getenv("OPENVIDU_INSECURE")); insecure != "" {
		parsed, err := strconv.ParseBool(insecure)
		if err != nil {
			return Config{}, fmt.Errorf("parse OPENVIDU_INSECURE: %w", err)
		}
		cfg.InsecureSkipVerify = parsed
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("secret is required")
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("domain is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// baseURL assembles the server base URL from Domain and Port. Domains that
// already carry a scheme (httptest servers, reverse proxies) are taken
// as-is and Port is ignored.
func (c Config) baseURL() string {
	domain := strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if strings.Contains(domain, "://") {
		return domain
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("https://%s:%d", domain, port)
}
