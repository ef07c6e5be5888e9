package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the bancho server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Public domain the clients connect through, e.g. "ppy.sh" lookalike.
	Domain string `yaml:"domain"`

	// Server identity
	BotName string `yaml:"bot_name"`
	BotID   int32  `yaml:"bot_id"`

	// Command prefix for the chat bot.
	CommandPrefix string `yaml:"command_prefix"`

	// Main menu banner
	MenuIconURL    string `yaml:"menu_icon_url"`
	MenuOnclickURL string `yaml:"menu_onclick_url"`

	// Client gate
	OldestClientAge    time.Duration `yaml:"oldest_client_age"` // reject clients older than this
	DisallowOldClients bool          `yaml:"disallow_old_clients"`

	// Housekeeping
	PingTimeout     time.Duration `yaml:"ping_timeout"`     // evict silent sessions after this
	GhostTimeout    time.Duration `yaml:"ghost_timeout"`    // relogin takeover threshold
	SweepInterval   time.Duration `yaml:"sweep_interval"`   // housekeeping tick
	NowPlayingTTL   time.Duration `yaml:"now_playing_ttl"`  // /np recall window
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Metrics
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPath    string `yaml:"metrics_path"`

	// Database
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:        "0.0.0.0",
		Port:               8080,
		Domain:             "osukon.dev",
		BotName:            "Aoba",
		BotID:              1,
		CommandPrefix:      "!",
		MenuIconURL:        "",
		MenuOnclickURL:     "",
		OldestClientAge:    90 * 24 * time.Hour,
		DisallowOldClients: true,
		PingTimeout:        3 * time.Minute,
		GhostTimeout:       10 * time.Second,
		SweepInterval:      30 * time.Second,
		NowPlayingTTL:      5 * time.Minute,
		ShutdownTimeout:    10 * time.Second,
		MetricsEnabled:     true,
		MetricsPath:        "/metrics",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "banchod",
			Password: "banchod",
			DBName:   "banchod",
			SSLMode:  "disable",
		},
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
