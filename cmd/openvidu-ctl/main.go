// Command openvidu-ctl drives session and recording operations on an
// OpenVidu-compatible media server from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/renepardon/LaravelOpenVidu/internal/logging"
	"github.com/renepardon/LaravelOpenVidu/openvidu"
)

const usage = `Usage: openvidu-ctl <command> [flags]

Commands:
  sessions create   create a session on the media server
  sessions list     list sessions known to the media server
  sessions fetch    resync local session state and report whether it changed
  sessions close    close a session and disconnect its participants
  token             generate a participant token for a session
  recordings start  start recording a session
  recordings stop   stop an in-progress recording
  recordings get    show a single recording
  recordings list   list all recordings
  recordings delete delete a stopped recording

Connection settings come from OPENVIDU_APP, OPENVIDU_SECRET,
OPENVIDU_DOMAIN, and OPENVIDU_PORT.`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		lang := language.English
		if raw := strings.TrimSpace(os.Getenv("OPENVIDU_LANG")); raw != "" {
			if parsed, parseErr := language.Parse(raw); parseErr == nil {
				lang = parsed
			}
		}
		fmt.Fprintln(os.Stderr, openvidu.Localize(err, lang))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stdout, usage)
		return fmt.Errorf("command is required")
	}
	switch args[0] {
	case "sessions":
		return runSessions(args[1:], stdout)
	case "token":
		return runToken(args[1:], stdout)
	case "recordings":
		return runRecordings(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newClient() (*openvidu.Client, error) {
	cfg, err := openvidu.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		cfg.Logger = logging.New(logging.Config{Level: "debug", Format: "text", Writer: os.Stderr})
	}
	return openvidu.NewClient(cfg)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func runSessions(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("sessions subcommand is required (create, list, fetch, close)")
	}
	switch args[0] {
	case "create":
		return sessionsCreate(args[1:], stdout)
	case "list":
		return sessionsList(args[1:], stdout)
	case "fetch":
		return sessionsFetch(args[1:], stdout)
	case "close":
		return sessionsClose(args[1:], stdout)
	default:
		return fmt.Errorf("unknown sessions subcommand %q", args[0])
	}
}

func sessionsCreate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sessions create", flag.ContinueOnError)
	fs.SetOutput(stdout)
	customID := fs.String("id", "", "custom session identifier")
	mediaMode := fs.String("media-mode", "", "media mode (ROUTED or RELAYED)")
	recordingMode := fs.String("recording-mode", "", "recording mode (ALWAYS or MANUAL)")
	outputMode := fs.String("output-mode", "", "default recording output mode (COMPOSED or INDIVIDUAL)")
	layout := fs.String("layout", "", "default recording layout (BEST_FIT or CUSTOM)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	properties := openvidu.DefaultSessionProperties()
	if *customID != "" {
		properties.CustomSessionID = *customID
	}
	if *mediaMode != "" {
		properties.MediaMode = openvidu.MediaMode(*mediaMode)
	}
	if *recordingMode != "" {
		properties.RecordingMode = openvidu.RecordingMode(*recordingMode)
	}
	if *outputMode != "" {
		properties.DefaultOutputMode = openvidu.OutputMode(*outputMode)
	}
	if *layout != "" {
		properties.DefaultRecordingLayout = openvidu.RecordingLayout(*layout)
	}

	ctx, cancel := commandContext()
	defer cancel()
	session, err := client.CreateSession(ctx, &properties)
	if err != nil {
		return err
	}
	return printJSON(stdout, map[string]any{
		"sessionId": session.ID(),
		"createdAt": session.CreatedAt().Format(time.RFC3339),
	})
}

func sessionsList(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sessions list", flag.ContinueOnError)
	fs.SetOutput(stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if _, err := client.Fetch(ctx); err != nil {
		return err
	}
	sessions := client.GetActiveSessions()
	rows := make([]map[string]any, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, map[string]any{
			"sessionId":   session.ID(),
			"createdAt":   session.CreatedAt().Format(time.RFC3339),
			"recording":   session.IsBeingRecorded(),
			"connections": len(session.ActiveConnections()),
		})
	}
	return printJSON(stdout, rows)
}

func sessionsFetch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sessions fetch", flag.ContinueOnError)
	fs.SetOutput(stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	changed, err := client.Fetch(ctx)
	if err != nil {
		return err
	}
	return printJSON(stdout, map[string]any{
		"changed":  changed,
		"sessions": len(client.GetActiveSessions()),
	})
}

func sessionsClose(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sessions close", flag.ContinueOnError)
	fs.SetOutput(stdout)
	id := fs.String("id", "", "session identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	session, err := fetchSession(ctx, client, *id)
	if err != nil {
		return err
	}
	if err := session.Close(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "session %s closed\n", *id)
	return nil
}

func runToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stdout)
	sessionID := fs.String("session", "", "session identifier")
	role := fs.String("role", "", "participant role (SUBSCRIBER, PUBLISHER, MODERATOR)")
	data := fs.String("data", "", "server data attached to the token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("--session is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	session, err := fetchSession(ctx, client, *sessionID)
	if err != nil {
		return err
	}
	options := openvidu.TokenOptions{Data: *data}
	if *role != "" {
		options.Role = openvidu.Role(*role)
	}
	token, err := session.GenerateToken(ctx, &options)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func runRecordings(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("recordings subcommand is required (start, stop, get, list, delete)")
	}
	switch args[0] {
	case "start":
		return recordingsStart(args[1:], stdout)
	case "stop":
		return recordingsStop(args[1:], stdout)
	case "get":
		return recordingsGet(args[1:], stdout)
	case "list":
		return recordingsList(args[1:], stdout)
	case "delete":
		return recordingsDelete(args[1:], stdout)
	default:
		return fmt.Errorf("unknown recordings subcommand %q", args[0])
	}
}

func recordingsStart(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("recordings start", flag.ContinueOnError)
	fs.SetOutput(stdout)
	sessionID := fs.String("session", "", "session identifier")
	name := fs.String("name", "", "recording name")
	resolution := fs.String("resolution", "", "recording resolution, e.g. 1280x720")
	outputMode := fs.String("output-mode", "", "output mode (COMPOSED or INDIVIDUAL)")
	layout := fs.String("layout", "", "recording layout (BEST_FIT or CUSTOM)")
	customLayout := fs.String("custom-layout", "", "custom layout URL path")
	audio := fs.Bool("audio", true, "record audio")
	video := fs.Bool("video", true, "record video")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("--session is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	properties := openvidu.DefaultRecordingProperties()
	properties.Name = *name
	properties.HasAudio = *audio
	properties.HasVideo = *video
	if *resolution != "" {
		properties.Resolution = *resolution
	}
	if *outputMode != "" {
		properties.OutputMode = openvidu.OutputMode(*outputMode)
	}
	if *layout != "" {
		properties.RecordingLayout = openvidu.RecordingLayout(*layout)
	}
	if *customLayout != "" {
		properties.CustomLayout = *customLayout
	}

	ctx, cancel := commandContext()
	defer cancel()
	recording, err := client.StartRecording(ctx, *sessionID, &properties)
	if err != nil {
		return err
	}
	return printRecording(stdout, recording)
}

func recordingsStop(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("recordings stop", flag.ContinueOnError)
	fs.SetOutput(stdout)
	id := fs.String("id", "", "recording identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	recording, err := client.StopRecording(ctx, *id)
	if err != nil {
		return err
	}
	return printRecording(stdout, recording)
}

func recordingsGet(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("recordings get", flag.ContinueOnError)
	fs.SetOutput(stdout)
	id := fs.String("id", "", "recording identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	recording, err := client.GetRecording(ctx, *id)
	if err != nil {
		return err
	}
	return printRecording(stdout, recording)
}

func recordingsList(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("recordings list", flag.ContinueOnError)
	fs.SetOutput(stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	recordings, err := client.GetRecordings(ctx)
	if err != nil {
		return err
	}
	rows := make([]map[string]any, 0, len(recordings))
	for _, recording := range recordings {
		rows = append(rows, recordingRow(recording))
	}
	return printJSON(stdout, rows)
}

func recordingsDelete(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("recordings delete", flag.ContinueOnError)
	fs.SetOutput(stdout)
	id := fs.String("id", "", "recording identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := client.DeleteRecording(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "recording %s deleted\n", *id)
	return nil
}

// fetchSession resyncs the cache and returns the named session, so the
// CLI works without a long-lived process holding cache state.
func fetchSession(ctx context.Context, client *openvidu.Client, id string) (*openvidu.Session, error) {
	if _, err := client.Fetch(ctx); err != nil {
		return nil, err
	}
	return client.GetSession(id)
}

func recordingRow(recording *openvidu.Recording) map[string]any {
	return map[string]any{
		"id":        recording.ID,
		"sessionId": recording.SessionID,
		"status":    string(recording.Status),
		"createdAt": recording.CreatedAt.Format(time.RFC3339),
		"duration":  recording.Duration,
		"size":      recording.Size,
	}
}

func printRecording(stdout io.Writer, recording *openvidu.Recording) error {
	return printJSON(stdout, recordingRow(recording))
}

func printJSON(stdout io.Writer, value any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
