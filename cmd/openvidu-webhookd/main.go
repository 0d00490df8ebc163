// Command openvidu-webhookd receives media server webhook events and keeps
// the process-local session cache in sync with the deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/renepardon/LaravelOpenVidu/internal/logging"
	"github.com/renepardon/LaravelOpenVidu/internal/serverutil"
	"github.com/renepardon/LaravelOpenVidu/openvidu"
	"github.com/renepardon/LaravelOpenVidu/webhook"
)

func envString(value, key string) string {
	if value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv(key))
}

func envDuration(value time.Duration, key string) (time.Duration, error) {
	if value != 0 {
		return value, nil
	}
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return parsed, nil
}

func main() {
	addr := flag.String("addr", "", "HTTP listen address (default :8089)")
	webhookPath := flag.String("webhook-path", "/webhook", "path the media server posts events to")
	token := flag.String("token", "", "shared secret required in the Authorization header")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "json", "log format (json or text)")
	resyncInterval := flag.Duration("resync-interval", 0, "interval between full session resyncs (0 disables)")
	redisAddr := flag.String("redis-addr", "", "redis address for the shared session mirror")
	redisUsername := flag.String("redis-username", "", "redis username")
	redisPassword := flag.String("redis-password", "", "redis password")
	redisMaster := flag.String("redis-master", "", "redis sentinel master name")
	redisKey := flag.String("redis-key", "", "redis hash key for mirrored sessions")
	redisCAFile := flag.String("redis-ca-file", "", "path to redis CA certificate")
	redisCertFile := flag.String("redis-cert-file", "", "path to redis client certificate")
	redisKeyFile := flag.String("redis-key-file", "", "path to redis client key")
	flag.Parse()

	logger := logging.Init(logging.Config{Level: *logLevel, Format: *logFormat})

	listenAddr := envString(*addr, "OPENVIDU_WEBHOOK_ADDR")
	if listenAddr == "" {
		listenAddr = ":8089"
	}
	sharedToken := envString(*token, "OPENVIDU_WEBHOOK_TOKEN")
	interval, err := envDuration(*resyncInterval, "OPENVIDU_WEBHOOK_RESYNC_INTERVAL")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	cfg, err := openvidu.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid media server configuration", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logging.WithComponent(logger, "openvidu")

	mirrorAddr := envString(*redisAddr, "OPENVIDU_REDIS_ADDR")
	if mirrorAddr != "" {
		mirror, err := openvidu.NewRedisMirror(openvidu.RedisMirrorConfig{
			Addr:       mirrorAddr,
			Username:   envString(*redisUsername, "OPENVIDU_REDIS_USERNAME"),
			Password:   envString(*redisPassword, "OPENVIDU_REDIS_PASSWORD"),
			MasterName: envString(*redisMaster, "OPENVIDU_REDIS_MASTER"),
			Key:        envString(*redisKey, "OPENVIDU_REDIS_KEY"),
			Logger:     logging.WithComponent(logger, "mirror"),
			TLS: openvidu.RedisTLSConfig{
				CAFile:   *redisCAFile,
				CertFile: *redisCertFile,
				KeyFile:  *redisKeyFile,
			},
		})
		if err != nil {
			logger.Error("failed to connect session mirror", "error", err)
			os.Exit(1)
		}
		defer mirror.Close()
		cfg.Mirror = mirror
	}

	client, err := openvidu.NewClient(cfg)
	if err != nil {
		logger.Error("failed to build media server client", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if restored, err := client.RestoreSessions(ctx); err != nil {
		logger.Warn("session restore from mirror failed", "error", err)
	} else if restored > 0 {
		logger.Info("restored sessions from mirror", "count", restored)
	}

	dispatcher := webhook.NewDispatcher()
	webhook.BindSessionCache(dispatcher, client)
	eventLogger := logging.WithComponent(logger, "webhook")
	dispatcher.SubscribeAll(func(event webhook.Event) {
		eventLogger.Debug("webhook event received", "type", event.Type, "session_id", event.SessionID)
	})

	mux := http.NewServeMux()
	mux.Handle(*webhookPath, webhook.NewHandler(webhook.HandlerConfig{
		Dispatcher: dispatcher,
		Token:      sharedToken,
		Logger:     eventLogger,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serverutil.Run(groupCtx, serverutil.Config{
			Server: &http.Server{
				Addr:              listenAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			},
			TLS: serverutil.TLSConfig{CertFile: *tlsCert, KeyFile: *tlsKey},
		})
	})
	if interval > 0 {
		group.Go(func() error {
			return runResyncWorker(groupCtx, logging.WithComponent(logger, "resync"), client, interval)
		})
	}

	logger.Info("webhook daemon listening", "addr", listenAddr, "path", *webhookPath, "resync_interval", interval.String())
	if err := group.Wait(); err != nil {
		logger.Error("webhook daemon stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("webhook daemon stopped")
}
