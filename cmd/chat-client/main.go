package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aannaassalam/coachiatry-sub001/internal/api"
	"github.com/aannaassalam/coachiatry-sub001/internal/cache"
	"github.com/aannaassalam/coachiatry-sub001/internal/config"
	"github.com/aannaassalam/coachiatry-sub001/internal/control"
	"github.com/aannaassalam/coachiatry-sub001/internal/identity"
	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
	"github.com/aannaassalam/coachiatry-sub001/internal/room"
	"github.com/aannaassalam/coachiatry-sub001/internal/tui"
	"github.com/aannaassalam/coachiatry-sub001/internal/upload"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat-client: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize structured logger. The UI owns the terminal, so logs go
	// to a file.
	logCloser, err := pkglog.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logger := pkglog.L()

	if cfg.Session.ChatID == "" {
		return fmt.Errorf("session.chat_id is required (set CHAT_ID)")
	}

	id, err := identity.FromToken(cfg.API.Token)
	if err != nil {
		return err
	}
	if id.Anonymous() {
		logger.Warn().Msg("no access token configured, realtime disabled")
	}

	// Initialize backend client
	client := api.NewClient(cfg.API.BaseURL, id.Token, cfg.API.Timeout, logger)

	// Initialize conversation cache
	store, err := cache.NewStore(cfg.Cache, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to create conversation cache: %w", err)
	}
	defer store.Close()
	conversations := cache.NewConversations(store, client, logger)
	logger.Info().Str("backend", cfg.Cache.Backend).Dur("ttl", cfg.Cache.TTL).Msg("conversation cache ready")

	// Initialize realtime channel
	channels := realtime.NewManager(realtime.Config{
		URL:               cfg.WebSocket.URL,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongWait:          cfg.WebSocket.PongWait,
		WriteWait:         cfg.WebSocket.WriteWait,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
		ReconnectAttempts: cfg.WebSocket.ReconnectAttempts,
		ReconnectDelay:    cfg.WebSocket.ReconnectDelay,
		SendBuffer:        cfg.WebSocket.SendBuffer,
	}, logger)
	defer channels.Close()
	channels.SetIdentity(id)

	// Initialize uploads
	uploader := upload.NewUploader(client, upload.UploaderConfig{ChunkSize: cfg.Upload.ChunkSize}, logger)
	orchestrator := upload.NewOrchestrator(uploader, upload.NewCancelRegistry(), upload.OrchestratorConfig{
		MaxConcurrentFiles: cfg.Upload.MaxConcurrentFiles,
	}, logger)

	// Start control API
	if cfg.Control.Enabled {
		srv := control.NewServer(cfg.Control.Address, control.NewHTTPHandler(channels, orchestrator.Registry()), logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start control api: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("control api forced to shutdown")
			}
		}()
	}

	logger.Info().
		Str(pkglog.FieldChat, cfg.Session.ChatID).
		Str(pkglog.FieldUserID, id.UserID).
		Msg("chat-client starting")

	err = tui.Run(tui.Options{
		Identity:      id,
		ChatID:        cfg.Session.ChatID,
		Channels:      channels,
		Binder:        room.NewBinder(logger),
		Conversations: conversations,
		Sender:        client,
		Orchestrator:  orchestrator,
		Logger:        logger,
	})

	logger.Info().Msg("chat-client stopped")
	return err
}
