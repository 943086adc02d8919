// Package registry parses registry bot flags and launches the service.
package registry

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/roleplay-registry/internal/platform/cmd"
	server "github.com/louisbranch/roleplay-registry/internal/services/registry/app"
)

// Config holds registry command configuration.
type Config struct {
	DiscordToken      string `env:"ROLEPLAY_REGISTRY_DISCORD_TOKEN"`
	DiscordAppID      string `env:"ROLEPLAY_REGISTRY_DISCORD_APP_ID"`
	DiscordGuildID    string `env:"ROLEPLAY_REGISTRY_DISCORD_GUILD_ID"`
	AdminRoleID       string `env:"ROLEPLAY_REGISTRY_ADMIN_ROLE_ID" envDefault:"1381694141741924363"`
	Storage           string `env:"ROLEPLAY_REGISTRY_STORAGE" envDefault:"file"`
	DataDir           string `env:"ROLEPLAY_REGISTRY_DATA_DIR" envDefault:"data"`
	DBPath            string `env:"ROLEPLAY_REGISTRY_DB_PATH" envDefault:"data/registry.db"`
	ContractIntegrity string `env:"ROLEPLAY_REGISTRY_CONTRACT_INTEGRITY" envDefault:"strict"`
	Locale            string `env:"ROLEPLAY_REGISTRY_LOCALE" envDefault:"en-US"`
	SyncCommands      bool   `env:"ROLEPLAY_REGISTRY_SYNC_COMMANDS" envDefault:"true"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DiscordAppID, "app-id", cfg.DiscordAppID, "Discord application ID")
	fs.StringVar(&cfg.DiscordGuildID, "guild-id", cfg.DiscordGuildID, "Discord guild ID")
	fs.StringVar(&cfg.AdminRoleID, "admin-role-id", cfg.AdminRoleID, "Role ID granting privileged commands")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: file or sqlite")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for JSON collection files")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the SQLite database")
	fs.StringVar(&cfg.ContractIntegrity, "contract-integrity", cfg.ContractIntegrity, "Contract party check: strict or permissive")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Reply locale when an interaction carries none")
	fs.BoolVar(&cfg.SyncCommands, "sync-commands", cfg.SyncCommands, "Replace guild slash commands on startup")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the registry bot.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRegistry, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			DiscordToken:   cfg.DiscordToken,
			DiscordAppID:   cfg.DiscordAppID,
			DiscordGuildID: cfg.DiscordGuildID,
			AdminRoleID:    cfg.AdminRoleID,
			Storage:        cfg.Storage,
			DataDir:        cfg.DataDir,
			DBPath:         cfg.DBPath,
			Integrity:      cfg.ContractIntegrity,
			Locale:         cfg.Locale,
			SyncCommands:   cfg.SyncCommands,
		})
	})
}
