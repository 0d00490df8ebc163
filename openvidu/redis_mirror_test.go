package openvidu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/renepardon/LaravelOpenVidu/internal/testsupport/openvidustub"
	"github.com/renepardon/LaravelOpenVidu/internal/testsupport/redisstub"
)

func newStubMirror(t *testing.T, opts redisstub.Options, cfg RedisMirrorConfig) (*RedisMirror, *redisstub.Server) {
	t.Helper()
	stub, err := redisstub.Start(opts)
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	t.Cleanup(func() { _ = stub.Close() })
	cfg.Addr = stub.Addr()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	mirror, err := NewRedisMirror(cfg)
	if err != nil {
		t.Fatalf("NewRedisMirror: %v", err)
	}
	t.Cleanup(func() { _ = mirror.Close() })
	return mirror, stub
}

// TestRedisMirrorSaveListDelete verifies the snapshot round trip through
// the mirror hash.
func TestRedisMirrorSaveListDelete(t *testing.T) {
	mirror, stub := newStubMirror(t, redisstub.Options{}, RedisMirrorConfig{})
	ctx := context.Background()

	snapshot := SessionSnapshot{
		SessionID: "meeting-1",
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
		Properties: SessionProperties{
			MediaMode:     MediaModeRouted,
			RecordingMode: RecordingModeManual,
		},
		Connections: []Connection{{ConnectionID: "con_1", Role: RolePublisher}},
		Recording:   true,
	}
	if err := mirror.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fields := stub.Hash(DefaultRedisMirrorKey); len(fields) != 1 {
		t.Fatalf("expected 1 stored snapshot, got %d", len(fields))
	}

	snapshots, err := mirror.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	got := snapshots[0]
	if got.SessionID != "meeting-1" || !got.Recording {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if !got.CreatedAt.Equal(snapshot.CreatedAt) {
		t.Fatalf("creation time lost: %v", got.CreatedAt)
	}
	if len(got.Connections) != 1 || got.Connections[0].ConnectionID != "con_1" {
		t.Fatalf("connections lost: %+v", got.Connections)
	}

	if err := mirror.Delete(ctx, "meeting-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snapshots, err = mirror.List(ctx)
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("expected empty mirror, got %d snapshots", len(snapshots))
	}
}

// TestRedisMirrorSkipsMalformedEntries verifies that one corrupt entry
// does not break the whole listing.
func TestRedisMirrorSkipsMalformedEntries(t *testing.T) {
	mirror, stub := newStubMirror(t, redisstub.Options{}, RedisMirrorConfig{Key: "custom:key"})
	ctx := context.Background()

	if err := mirror.Save(ctx, SessionSnapshot{SessionID: "good"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	stub.SetHashField("custom:key", "bad", "{not json")

	snapshots, err := mirror.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].SessionID != "good" {
		t.Fatalf("expected only the intact snapshot, got %+v", snapshots)
	}
}

// TestRedisMirrorValidation verifies input validation of Save and Delete.
func TestRedisMirrorValidation(t *testing.T) {
	mirror, _ := newStubMirror(t, redisstub.Options{}, RedisMirrorConfig{})
	ctx := context.Background()

	if err := mirror.Save(ctx, SessionSnapshot{}); err == nil {
		t.Fatal("expected error for snapshot without identifier")
	}
	if err := mirror.Delete(ctx, ""); err == nil {
		t.Fatal("expected error for empty identifier")
	}
}

// TestRedisMirrorAuthentication verifies that a password-protected server
// accepts the configured credentials and rejects missing ones.
func TestRedisMirrorAuthentication(t *testing.T) {
	stub, err := redisstub.Start(redisstub.Options{Password: "hunter2"})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	t.Cleanup(func() { _ = stub.Close() })

	if _, err := NewRedisMirror(RedisMirrorConfig{Addr: stub.Addr()}); err == nil {
		t.Fatal("expected ping failure without password")
	}

	mirror, err := NewRedisMirror(RedisMirrorConfig{Addr: stub.Addr(), Password: "hunter2"})
	if err != nil {
		t.Fatalf("NewRedisMirror with password: %v", err)
	}
	t.Cleanup(func() { _ = mirror.Close() })
	if err := mirror.Save(context.Background(), SessionSnapshot{SessionID: "meeting-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// TestRedisMirrorRequiresAddr verifies construction fails fast without an
// address.
func TestRedisMirrorRequiresAddr(t *testing.T) {
	if _, err := NewRedisMirror(RedisMirrorConfig{}); err == nil {
		t.Fatal("expected error for missing address")
	}
}

// TestClientMirrorIntegration verifies that cache mutations flow into the
// mirror and a fresh client can restore sessions from it.
func TestClientMirrorIntegration(t *testing.T) {
	redisServer, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	t.Cleanup(func() { _ = redisServer.Close() })
	mirror, err := NewRedisMirror(RedisMirrorConfig{
		Addr:   redisServer.Addr(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewRedisMirror: %v", err)
	}
	t.Cleanup(func() { _ = mirror.Close() })

	stub := openvidustub.Start(openvidustub.Options{Secret: testSecret})
	t.Cleanup(stub.Close)
	newMirroredClient := func() *Client {
		client, err := NewClient(Config{
			Secret: testSecret,
			Domain: stub.BaseURL(),
			Mirror: mirror,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		return client
	}
	ctx := context.Background()

	first := newMirroredClient()
	if _, err := first.CreateSession(ctx, &SessionProperties{CustomSessionID: "meeting-1"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	second := newMirroredClient()
	restored, err := second.RestoreSessions(ctx)
	if err != nil {
		t.Fatalf("RestoreSessions: %v", err)
	}
	if restored != 1 {
		t.Fatalf("expected 1 restored session, got %d", restored)
	}
	session, err := second.GetSession("meeting-1")
	if err != nil {
		t.Fatalf("GetSession after restore: %v", err)
	}
	if session.Properties().CustomSessionID != "meeting-1" {
		t.Fatalf("restored session lost properties: %+v", session.Properties())
	}

	// Restoring again is a no-op for sessions already cached.
	restored, err = second.RestoreSessions(ctx)
	if err != nil {
		t.Fatalf("RestoreSessions repeat: %v", err)
	}
	if restored != 0 {
		t.Fatalf("expected no additional restores, got %d", restored)
	}

	first.NotifySessionDeleted("meeting-1")
	snapshots, err := mirror.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("expected mirror eviction, got %+v", snapshots)
	}
}

// TestRestoreSessionsRequiresMirror verifies the guard for unmirrored
// clients.
func TestRestoreSessionsRequiresMirror(t *testing.T) {
	client, _ := newStubClient(t, openvidustub.Options{})
	if _, err := client.RestoreSessions(context.Background()); err == nil {
		t.Fatal("expected error without a configured mirror")
	}
}

// TestBuildRedisTLSConfig verifies the cert pairing rule and the nil
// result for a plain connection.
func TestBuildRedisTLSConfig(t *testing.T) {
	cfg, err := buildRedisTLSConfig(RedisTLSConfig{})
	if err != nil || cfg != nil {
		t.Fatalf("plain config should yield nil, got %v %v", cfg, err)
	}
	if _, err := buildRedisTLSConfig(RedisTLSConfig{CertFile: "cert.pem"}); err == nil {
		t.Fatal("expected error for cert without key")
	}
	cfg, err = buildRedisTLSConfig(RedisTLSConfig{InsecureSkipVerify: true, ServerName: "redis.internal"})
	if err != nil {
		t.Fatalf("buildRedisTLSConfig: %v", err)
	}
	if cfg == nil || !cfg.InsecureSkipVerify || cfg.ServerName != "redis.internal" {
		t.Fatalf("unexpected TLS config: %+v", cfg)
	}
}

var errMirrorDown = errors.New("mirror down")

type failingMirror struct{}

func (failingMirror) Save(context.Context, SessionSnapshot) error { return errMirrorDown }
func (failingMirror) Delete(context.Context, string) error        { return errMirrorDown }
func (failingMirror) List(context.Context) ([]SessionSnapshot, error) {
	return nil, errMirrorDown
}
func (failingMirror) Close() error { return nil }

// TestMirrorFailuresAreAdvisory verifies that a broken mirror never fails
// session operations.
func TestMirrorFailuresAreAdvisory(t *testing.T) {
	stub := openvidustub.Start(openvidustub.Options{Secret: testSecret})
	t.Cleanup(stub.Close)
	client, err := NewClient(Config{
		Secret: testSecret,
		Domain: stub.BaseURL(),
		Mirror: failingMirror{},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	session, err := client.CreateSession(ctx, &SessionProperties{CustomSessionID: "meeting-1"})
	if err != nil {
		t.Fatalf("CreateSession despite broken mirror: %v", err)
	}
	if err := session.Close(ctx); err != nil {
		t.Fatalf("Close despite broken mirror: %v", err)
	}

	// RestoreSessions is the one operation that depends on the mirror.
	if _, err := client.RestoreSessions(ctx); !errors.Is(err, errMirrorDown) {
		t.Fatalf("expected wrapped mirror failure, got %v", err)
	}
}
