// Package app provides the orchestration layer for ntdash.
//
// # Overview
//
// This package wires together configuration, the backend transport, the
// network-tables client, the history archive, metrics and the pollers. It is
// the composition root where all dependencies are initialized and connected.
//
// # Commands
//
//   - Run: connect one client, subscribe every configured pattern and keep
//     the caches fresh until the context is cancelled
//   - Publish: declare a topic on a short-lived client and send one value
//   - History: print the archived samples of one pattern
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ntdash config
//	       ├─────> dialBackend()        HTTP, NATS or WebSocket invoker
//	       ├─────> metrics.New()        Prometheus observer
//	       ├─────> archive.Open()       Badger history archive (optional)
//	       ├─────> nt.Registry.Start()  Connect the watch client
//	       ├─────> Subscribe/Restore    Seed caches from the archive
//	       ├─────> StartPoller()        One refresh loop per subscription
//	       └─────> <-ctx.Done()         Save caches, stop the client
//
//	Per-subscription loop:
//	┌─────────────────────────────────────────┐
//	│ poll() goroutine                        │
//	│  ├─> Subscription.Refresh()             │
//	│  └─> state.Store.Update()               │
//	│      └─> report() reads Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// Each subscription refreshes at its periodic option, or the configured poll
// interval when unset. Failures back off exponentially up to 30 seconds and
// reset on the next success. A loop exits when its subscription is closed or
// the context ends.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Backend transport cannot be opened
//   - The backend refuses to start the client
//
// Recoverable errors (logged, polling continues):
//   - Refresh failures and timeouts
//   - Archive load or save failures
//   - Rejected subscriptions
package app
