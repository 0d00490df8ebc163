package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/renepardon/LaravelOpenVidu/internal/testsupport/openvidustub"
)

func startCLIStub(t *testing.T) *openvidustub.Server {
	t.Helper()
	stub := openvidustub.Start(openvidustub.Options{Secret: "cli-secret"})
	t.Cleanup(stub.Close)
	t.Setenv("OPENVIDU_SECRET", "cli-secret")
	t.Setenv("OPENVIDU_DOMAIN", stub.BaseURL())
	return stub
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func TestCLISessionLifecycle(t *testing.T) {
	startCLIStub(t)

	out, err := runCLI(t, "sessions", "create", "-id", "meeting-1")
	if err != nil {
		t.Fatalf("sessions create: %v", err)
	}
	if !strings.Contains(out, `"meeting-1"`) {
		t.Fatalf("create output missing session id: %q", out)
	}

	out, err = runCLI(t, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	if !strings.Contains(out, `"meeting-1"`) {
		t.Fatalf("list output missing session: %q", out)
	}

	out, err = runCLI(t, "sessions", "fetch")
	if err != nil {
		t.Fatalf("sessions fetch: %v", err)
	}
	if !strings.Contains(out, `"changed"`) {
		t.Fatalf("fetch output missing change flag: %q", out)
	}

	out, err = runCLI(t, "sessions", "close", "-id", "meeting-1")
	if err != nil {
		t.Fatalf("sessions close: %v", err)
	}
	if !strings.Contains(out, "closed") {
		t.Fatalf("unexpected close output: %q", out)
	}
}

func TestCLIToken(t *testing.T) {
	stub := startCLIStub(t)
	stub.CreateRemoteSession("meeting-1")

	out, err := runCLI(t, "token", "-session", "meeting-1", "-role", "MODERATOR")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if !strings.Contains(out, "meeting-1") {
		t.Fatalf("token output missing session reference: %q", out)
	}
}

func TestCLIRecordingLifecycle(t *testing.T) {
	stub := startCLIStub(t)
	stub.CreateRemoteSession("meeting-1")
	stub.AddConnection("meeting-1", "stream-a")

	out, err := runCLI(t, "recordings", "start", "-session", "meeting-1", "-name", "weekly")
	if err != nil {
		t.Fatalf("recordings start: %v", err)
	}
	if !strings.Contains(out, `"started"`) {
		t.Fatalf("start output missing status: %q", out)
	}

	out, err = runCLI(t, "recordings", "stop", "-id", "meeting-1")
	if err != nil {
		t.Fatalf("recordings stop: %v", err)
	}
	if !strings.Contains(out, `"stopped"`) {
		t.Fatalf("stop output missing status: %q", out)
	}

	out, err = runCLI(t, "recordings", "list")
	if err != nil {
		t.Fatalf("recordings list: %v", err)
	}
	if !strings.Contains(out, `"meeting-1"`) {
		t.Fatalf("list output missing recording: %q", out)
	}

	if _, err := runCLI(t, "recordings", "delete", "-id", "meeting-1"); err != nil {
		t.Fatalf("recordings delete: %v", err)
	}
	if _, err := runCLI(t, "recordings", "get", "-id", "meeting-1"); err == nil {
		t.Fatal("expected error after deletion")
	}
}

func TestCLIArgumentValidation(t *testing.T) {
	startCLIStub(t)

	if _, err := runCLI(t); err == nil {
		t.Fatal("expected error without arguments")
	}
	if _, err := runCLI(t, "volumes"); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if _, err := runCLI(t, "sessions", "close"); err == nil {
		t.Fatal("expected error without session id")
	}
	if _, err := runCLI(t, "token"); err == nil {
		t.Fatal("expected error without session id")
	}
	if _, err := runCLI(t, "recordings", "stop"); err == nil {
		t.Fatal("expected error without recording id")
	}

	out, err := runCLI(t, "help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("help output missing usage: %q", out)
	}
}
