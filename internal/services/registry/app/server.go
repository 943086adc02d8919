// Package server wires registry storage, workflow, roster, and the Discord
// gateway into one running process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	adapter "github.com/louisbranch/roleplay-registry/internal/services/registry/adapter/discord"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/roster"
	rosterdiscord "github.com/louisbranch/roleplay-registry/internal/services/registry/roster/discord"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage/file"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage/sqlite"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/store"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/workflow"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds runtime settings resolved by the command layer.
type Config struct {
	DiscordToken   string
	DiscordAppID   string
	DiscordGuildID string
	AdminRoleID    string
	Storage        string
	DataDir        string
	DBPath         string
	Integrity      string
	Locale         string
	SyncCommands   bool
}

// Validate reports missing or unsupported settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DiscordToken) == "" {
		errs = append(errs, errors.New("discord token is required"))
	}
	if strings.TrimSpace(c.DiscordGuildID) == "" {
		errs = append(errs, errors.New("discord guild id is required"))
	}
	if c.SyncCommands && strings.TrimSpace(c.DiscordAppID) == "" {
		errs = append(errs, errors.New("discord app id is required to sync commands"))
	}
	if strings.TrimSpace(c.AdminRoleID) == "" {
		errs = append(errs, errors.New("admin role id is required"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage)) {
	case StorageFile, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage))
	}
	if _, err := workflow.ParseIntegrity(c.Integrity); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Gateway is the Discord connection the server drives.
type Gateway interface {
	rosterdiscord.Session
	adapter.Responder
	adapter.CommandRegistrar
	Open() error
	Close() error
}

// Server owns the registry runtime.
type Server struct {
	cfg     Config
	gateway Gateway
	blobs   storage.BlobStore
	engine  *workflow.Engine
	handler *adapter.Handler

	closeOnce sync.Once
}

// New opens storage, loads the registry, and builds the engine and command
// handler around gateway. The gateway is not opened yet.
func New(ctx context.Context, cfg Config, gateway Gateway) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}

	blobs, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv, err := build(ctx, cfg, gateway, blobs)
	if err != nil {
		if closeErr := blobs.Close(); closeErr != nil {
			log.Printf("server: close storage: %v", closeErr)
		}
		return nil, err
	}
	return srv, nil
}

func build(ctx context.Context, cfg Config, gateway Gateway, blobs storage.BlobStore) (*Server, error) {
	registry, err := store.Open(ctx, blobs)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	directory, err := rosterdiscord.NewDirectory(gateway, cfg.DiscordGuildID)
	if err != nil {
		return nil, err
	}
	integrity, err := workflow.ParseIntegrity(cfg.Integrity)
	if err != nil {
		return nil, err
	}
	engine, err := workflow.New(
		registry,
		roster.NewSynchronizer(directory, directory, roster.DefaultSyncPolicy),
		workflow.WithIntegrity(integrity),
	)
	if err != nil {
		return nil, err
	}
	handler, err := adapter.NewHandler(engine, cfg.AdminRoleID, cfg.Locale)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		gateway: gateway,
		blobs:   blobs,
		engine:  engine,
		handler: handler,
	}, nil
}

// OpenBlobStore opens the configured storage backend.
func OpenBlobStore(ctx context.Context, cfg Config) (storage.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case StorageFile:
		blobs, err := file.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return blobs, nil
	case StorageSQLite:
		blobs, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return blobs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// HandleInteraction answers one gateway interaction.
func (s *Server) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	s.handler.Serve(ctx, s.gateway, i)
}

// Serve opens the gateway, optionally replaces the guild command catalog,
// and blocks until ctx is done. Storage and gateway are closed on return.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	if err := s.gateway.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	log.Printf("server: gateway open, guild %s, integrity %s", s.cfg.DiscordGuildID, s.engine.Integrity())

	if s.cfg.SyncCommands {
		if err := adapter.SyncCommands(ctx, s.gateway, s.cfg.DiscordAppID, s.cfg.DiscordGuildID); err != nil {
			// A failed sync leaves the previous catalog registered.
			log.Printf("server: sync commands: %v", err)
		}
	}

	<-ctx.Done()
	log.Printf("server: shutting down")
	return nil
}

// Close releases the gateway and storage. Later calls do nothing.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if err := s.gateway.Close(); err != nil {
			log.Printf("server: close gateway: %v", err)
		}
		if err := s.blobs.Close(); err != nil {
			log.Printf("server: close storage: %v", err)
		}
	})
}

// Run connects to Discord with cfg and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	session, err := discordgo.New("Bot " + strings.TrimSpace(cfg.DiscordToken))
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	srv, err := New(ctx, cfg, session)
	if err != nil {
		return err
	}
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		if r.User != nil {
			log.Printf("server: logged in as %s", r.User.Username)
		}
	})
	session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		srv.HandleInteraction(ctx, ic.Interaction)
	})
	return srv.Serve(ctx)
}
