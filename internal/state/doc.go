// Package state tracks refresh health for every subscription.
//
// # Overview
//
// The poller writes one entry per (client, pattern) after each refresh and
// consumers such as the watch command read copies of them. The cached data
// itself lives in the subscription; this package only records how fresh it
// is and whether refreshing it is failing.
//
//	Producer (Poller):             Consumer (watch / history):
//	┌────────────────────┐        ┌──────────────────┐
//	│ sub.Refresh(ctx)   │        │                  │
//	│      ↓             │        │                  │
//	│ store.Update(...)  │───────→│ store.Snapshot() │
//	│      ↓             │(mutex) │      ↓           │
//	│  wait period       │        │  log summary     │
//	└────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
//	// Success: counts are taken from the cache view
//	store.Update(client, pattern, sub.Cache(), nil)
//	→ Paths, Samples, Timestamp refreshed
//	→ LastError = nil, ConsecutiveFailures = 0
//
//	// Failure: counts are kept, the error is recorded
//	store.Update(client, pattern, nil, err)
//	→ LastError = err, ConsecutiveFailures++
//
// Health.IsOffline reports true after two consecutive failures, which the
// poller also uses to back off.
//
// # Defensive Copying
//
// Get and Snapshot return values, and errors are re-wrapped so callers never
// share the stored instance. errors.Is still matches the original.
//
// # Testing Considerations
//
// The zero Store is ready to use:
//
//	var store state.Store
package state
