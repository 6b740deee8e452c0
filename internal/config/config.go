package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/ntdash/internal/backend"
)

// Transports understood by the app.
const (
	TransportHTTP      = "http"
	TransportNATS      = "nats"
	TransportWebSocket = "ws"
)

// Subscription is one [[subscription]] table.
type Subscription struct {
	Pattern  string
	Periodic time.Duration
	All      bool
	Prefix   bool
}

// Options converts the table to backend subscribe flags.
func (s Subscription) Options() backend.SubscribeOptions {
	return backend.SubscribeOptions{Periodic: s.Periodic, All: s.All, Prefix: s.Prefix}
}

// Config is the resolved ntdash configuration.
type Config struct {
	Transport         string
	BackendAddr       string
	NATSURL           string
	NATSSubjectPrefix string

	Server   [4]byte
	Team     int
	Port     uint16
	Identity string

	PollInterval     time.Duration
	HistoryLimit     int
	ArchiveDir       string
	CompressionLevel int
	MetricsAddr      string
	LogLevel         string

	Subscriptions []Subscription
}

const (
	defaultConfigPath        = "~/.config/ntdash/config.toml"
	defaultArchiveDir        = "~/.local/share/ntdash/archive"
	defaultTransport         = TransportHTTP
	defaultBackendAddr       = "127.0.0.1:7487"
	defaultNATSURL           = "nats://127.0.0.1:4222"
	defaultNATSSubjectPrefix = "ntdash.invoke"
	defaultServer            = "127.0.0.1"
	defaultPort              = 5810
	defaultIdentity          = "ntdash"
	defaultPollSeconds       = 1.0
	defaultHistoryLimit      = 10000
	defaultCompressionLevel  = 1
	defaultLogLevel          = "info"
)

type rawSubscription struct {
	Pattern  string  `toml:"pattern"`
	Periodic float64 `toml:"periodic"`
	All      bool    `toml:"all"`
	Prefix   bool    `toml:"prefix"`
}

type rawConfig struct {
	Transport         string            `toml:"transport"`
	BackendAddr       string            `toml:"backend_addr"`
	NATSURL           string            `toml:"nats_url"`
	NATSSubjectPrefix string            `toml:"nats_subject_prefix"`
	Server            string            `toml:"server"`
	Team              int               `toml:"team"`
	Port              *int              `toml:"port"`
	Identity          string            `toml:"identity"`
	PollSeconds       *float64          `toml:"poll_seconds"`
	HistoryLimit      *int              `toml:"history_limit"`
	ArchiveDir        *string           `toml:"archive_dir"`
	CompressionLevel  *int              `toml:"compression_level"`
	MetricsAddr       string            `toml:"metrics_addr"`
	LogLevel          string            `toml:"log_level"`
	Subscriptions     []rawSubscription `toml:"subscription"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg, _ := resolve(rawConfig{})
	return cfg
}

// Load locates and parses the ntdash config, falling back to defaults when
// missing. The result is validated.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg, err := resolve(raw)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(raw rawConfig) (Config, error) {
	cfg := Config{
		Transport:         orDefault(strings.ToLower(raw.Transport), defaultTransport),
		BackendAddr:       orDefault(raw.BackendAddr, defaultBackendAddr),
		NATSURL:           orDefault(raw.NATSURL, defaultNATSURL),
		NATSSubjectPrefix: orDefault(raw.NATSSubjectPrefix, defaultNATSSubjectPrefix),
		Team:              raw.Team,
		Port:              defaultPort,
		Identity:          orDefault(raw.Identity, defaultIdentity),
		PollInterval:      seconds(defaultPollSeconds),
		HistoryLimit:      defaultHistoryLimit,
		ArchiveDir:        mustExpand(defaultArchiveDir),
		CompressionLevel:  defaultCompressionLevel,
		MetricsAddr:       strings.TrimSpace(raw.MetricsAddr),
		LogLevel:          orDefault(strings.ToLower(raw.LogLevel), defaultLogLevel),
	}

	server := strings.TrimSpace(raw.Server)
	switch {
	case server != "" && raw.Team != 0:
		return Config{}, fmt.Errorf("config sets both server and team")
	case raw.Team != 0:
		addr, err := backend.TeamAddress(raw.Team)
		if err != nil {
			return Config{}, fmt.Errorf("team: %w", err)
		}
		cfg.Server = addr
	default:
		addr, err := backend.ParseAddress(orDefault(server, defaultServer))
		if err != nil {
			return Config{}, fmt.Errorf("server: %w", err)
		}
		cfg.Server = addr
	}

	if raw.Port != nil {
		if *raw.Port <= 0 || *raw.Port > 65535 {
			return Config{}, fmt.Errorf("port %d out of range", *raw.Port)
		}
		cfg.Port = uint16(*raw.Port)
	}
	if raw.PollSeconds != nil {
		cfg.PollInterval = seconds(*raw.PollSeconds)
	}
	if raw.HistoryLimit != nil {
		cfg.HistoryLimit = *raw.HistoryLimit
	}
	if raw.ArchiveDir != nil {
		// An explicit empty archive_dir disables the archive.
		cfg.ArchiveDir = ""
		if dir := strings.TrimSpace(*raw.ArchiveDir); dir != "" {
			cfg.ArchiveDir = mustExpand(dir)
		}
	}
	if raw.CompressionLevel != nil {
		cfg.CompressionLevel = *raw.CompressionLevel
	}

	for _, s := range raw.Subscriptions {
		cfg.Subscriptions = append(cfg.Subscriptions, Subscription{
			Pattern:  strings.TrimSpace(s.Pattern),
			Periodic: seconds(s.Periodic),
			All:      s.All,
			Prefix:   s.Prefix,
		})
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportNATS, TransportWebSocket:
	default:
		return fmt.Errorf("transport %q: want http, nats or ws", c.Transport)
	}
	if c.Port == 0 {
		return fmt.Errorf("port must be set")
	}
	if strings.TrimSpace(c.Identity) == "" {
		return fmt.Errorf("identity must be set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_seconds must be positive")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 4 {
		return fmt.Errorf("compression_level %d: want 0..4", c.CompressionLevel)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	seen := make(map[string]bool, len(c.Subscriptions))
	for i, s := range c.Subscriptions {
		if s.Pattern == "" {
			return fmt.Errorf("subscription %d: pattern is empty", i)
		}
		if s.Periodic < 0 {
			return fmt.Errorf("subscription %s: periodic must not be negative", s.Pattern)
		}
		if seen[s.Pattern] {
			return fmt.Errorf("subscription %s: listed twice", s.Pattern)
		}
		seen[s.Pattern] = true
	}
	return nil
}

// ServerIdentity is the backend identity this config connects as.
func (c Config) ServerIdentity() backend.Identity {
	return backend.Identity{Address: c.Server, Port: c.Port, Name: c.Identity}
}

func orDefault(s, def string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return def
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
