package openvidu

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisTLSConfig controls TLS behaviour for redis mirror connections.
type RedisTLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// RedisMirrorConfig configures the redis-backed session mirror.
type RedisMirrorConfig struct {
	Addr         string
	Addrs        []string
	Username     string
	Password     string
	MasterName   string
	Key          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	Logger       *slog.Logger
	TLS          RedisTLSConfig
}

// DefaultRedisMirrorKey is the hash key snapshots are stored under.
const DefaultRedisMirrorKey = "openvidu:sessions"

// RedisMirror keeps session snapshots in a single redis hash keyed by
// session identifier, so a fleet of processes can observe each other's
// last-known session state.
type RedisMirror struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

var _ SessionMirror = (*RedisMirror)(nil)

// NewRedisMirror initialises a mirror backed by redis. The caller is
// responsible for ensuring the redis instance is reachable; construction
// performs a single ping to fail fast on misconfiguration.
func NewRedisMirror(cfg RedisMirrorConfig) (*RedisMirror, error) {
	addrs := make([]string, 0, len(cfg.Addrs)+1)
	for _, addr := range cfg.Addrs {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	if addr := strings.TrimSpace(cfg.Addr); addr != "" {
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addr is required")
	}
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultRedisMirrorKey
	}
	tlsConfig, err := buildRedisTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		MasterName:   strings.TrimSpace(cfg.MasterName),
		Username:     strings.TrimSpace(cfg.Username),
		Password:     cfg.Password,
		TLSConfig:    tlsConfig,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	mirror := &RedisMirror{client: client, key: key, logger: cfg.Logger}
	if mirror.logger == nil {
		mirror.logger = slog.Default()
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis mirror ping: %w", err)
	}
	return mirror, nil
}

// Save stores or replaces the snapshot for its session identifier.
func (m *RedisMirror) Save(ctx context.Context, snapshot SessionSnapshot) error {
	if snapshot.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := m.client.HSet(ctx, m.key, snapshot.SessionID, string(encoded)).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", snapshot.SessionID, err)
	}
	return nil
}

// Delete removes the snapshot for the given session identifier.
func (m *RedisMirror) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if err := m.client.HDel(ctx, m.key, sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns every stored snapshot. Entries that fail to decode are
// skipped with a warning rather than failing the whole listing.
func (m *RedisMirror) List(ctx context.Context) ([]SessionSnapshot, error) {
	entries, err := m.client.HGetAll(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	snapshots := make([]SessionSnapshot, 0, len(entries))
	for id, encoded := range entries {
		var snapshot SessionSnapshot
		if err := json.Unmarshal([]byte(encoded), &snapshot); err != nil {
			m.logger.Warn("skipping malformed session snapshot", "session", id, "error", err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// Close releases the underlying redis client.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

func buildRedisTLSConfig(cfg RedisTLSConfig) (*tls.Config, error) {
	if cfg.CAFile == "" && cfg.CertFile == "" && cfg.KeyFile == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
	}
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read redis CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("redis CA file %s contains no certificates", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, fmt.Errorf("redis TLS cert and key must both be provided")
	}
	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load redis client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}
