// Package config loads the ntdash TOML configuration.
//
// # Overview
//
// The config file tells ntdash how to reach the native bridge, which robot
// server to connect to, and which topics to watch. Every field is optional;
// a missing file yields the defaults.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/ntdash/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	transport = "http"               # http | nats | ws
//	backend_addr = "127.0.0.1:7487"  # http and ws bridges
//	nats_url = "nats://127.0.0.1:4222"
//	nats_subject_prefix = "ntdash.invoke"
//
//	team = 5940                      # or server = "10.59.40.2"
//	port = 5810
//	identity = "ntdash"
//
//	poll_seconds = 1
//	history_limit = 10000            # samples kept per path, 0 keeps all
//	archive_dir = "~/.local/share/ntdash/archive"  # "" disables
//	compression_level = 1            # zstd, 1 fastest .. 4 best
//	metrics_addr = ":9102"           # empty disables
//	log_level = "info"
//
//	[[subscription]]
//	pattern = "/SmartDashboard"
//	prefix = true
//	periodic = 0.1                   # seconds
//	all = false
//
// A team number is mapped to the controller address 10.TE.AM.2. Setting both
// team and server is an error.
//
// # Path Expansion
//
// The config path and archive_dir accept "~" and relative paths; both are
// converted to absolute paths.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - Values rejected by Validate
package config
