package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transport != TransportHTTP || cfg.BackendAddr != defaultBackendAddr {
		t.Fatalf("transport = %q %q, want http %q", cfg.Transport, cfg.BackendAddr, defaultBackendAddr)
	}
	if cfg.Server != [4]byte{127, 0, 0, 1} || cfg.Port != defaultPort || cfg.Identity != defaultIdentity {
		t.Fatalf("identity = %s, want 127.0.0.1:5810:ntdash", cfg.ServerIdentity())
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("PollInterval = %v, want 1s", cfg.PollInterval)
	}

	wantArchive, err := expandPath(defaultArchiveDir)
	if err != nil {
		t.Fatalf("expandPath(defaultArchiveDir) returned error: %v", err)
	}
	if cfg.ArchiveDir != wantArchive {
		t.Fatalf("ArchiveDir = %q, want %q", cfg.ArchiveDir, wantArchive)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
transport = " NATS "
nats_url = "  nats://10.0.0.9:4222  "
team = 5940
port = 5811
identity = "  pit  "
poll_seconds = 0.25
history_limit = 500
archive_dir = "  ~/.ntdash/archive  "
compression_level = 3
metrics_addr = " :9102 "
log_level = "DEBUG"

[[subscription]]
pattern = " /SmartDashboard "
prefix = true
periodic = 0.1

[[subscription]]
pattern = "/FMSInfo"
all = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transport != TransportNATS || cfg.NATSURL != "nats://10.0.0.9:4222" {
		t.Fatalf("transport = %q url = %q", cfg.Transport, cfg.NATSURL)
	}
	if got := cfg.ServerIdentity().String(); got != "10.59.40.2:5811:pit" {
		t.Fatalf("identity = %q, want 10.59.40.2:5811:pit", got)
	}
	if cfg.PollInterval != 250*time.Millisecond || cfg.HistoryLimit != 500 || cfg.CompressionLevel != 3 {
		t.Fatalf("poll=%v limit=%d level=%d", cfg.PollInterval, cfg.HistoryLimit, cfg.CompressionLevel)
	}
	if !strings.HasPrefix(cfg.ArchiveDir, home) {
		t.Fatalf("ArchiveDir = %q, want it under HOME %q", cfg.ArchiveDir, home)
	}
	if cfg.MetricsAddr != ":9102" || cfg.LogLevel != "debug" {
		t.Fatalf("metrics=%q level=%q", cfg.MetricsAddr, cfg.LogLevel)
	}

	if len(cfg.Subscriptions) != 2 {
		t.Fatalf("subscriptions = %d, want 2", len(cfg.Subscriptions))
	}
	sd := cfg.Subscriptions[0]
	if sd.Pattern != "/SmartDashboard" || !sd.Prefix || sd.Periodic != 100*time.Millisecond {
		t.Fatalf("subscription[0] = %#v", sd)
	}
	if opts := cfg.Subscriptions[1].Options(); !opts.All || opts.Prefix {
		t.Fatalf("subscription[1] options = %#v", opts)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
backend_addr = "   "
identity = ""
server = " "
archive_dir = ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BackendAddr != defaultBackendAddr || cfg.Identity != defaultIdentity {
		t.Fatalf("backend=%q identity=%q, want defaults", cfg.BackendAddr, cfg.Identity)
	}
	if cfg.Server != [4]byte{127, 0, 0, 1} {
		t.Fatalf("Server = %v, want loopback", cfg.Server)
	}
	if cfg.ArchiveDir != "" {
		t.Fatalf("ArchiveDir = %q, want disabled", cfg.ArchiveDir)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid toml", `transport = [`, "parse config"},
		{"unknown transport", `transport = "grpc"`, "transport"},
		{"server and team", "server = \"10.0.0.2\"\nteam = 1", "both server and team"},
		{"bad server", `server = "robot.local"`, "server"},
		{"team out of range", `team = 30000`, "team"},
		{"port out of range", `port = 70000`, "port"},
		{"zero poll", `poll_seconds = 0`, "poll_seconds"},
		{"compression", `compression_level = 9`, "compression_level"},
		{"log level", `log_level = "trace"`, "log_level"},
		{"empty pattern", "[[subscription]]\npattern = \" \"", "pattern is empty"},
		{"duplicate pattern", "[[subscription]]\npattern = \"/a\"\n[[subscription]]\npattern = \"/a\"", "listed twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
