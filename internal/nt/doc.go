// Package nt is the client-side registry of topics and subscriptions.
//
// # Overview
//
// A Client represents one connection identity (address, port, name) on the
// backend. It owns the topics it declared and the subscriptions it created;
// two clients never share either. Everything that reaches the backend is
// forwarded in the background and reported through a *Result, so callers
// never block on the network except in Connect and Refresh, which take a
// context.
//
// # Lifecycle
//
//	Disconnected --Connect--> Connected --Stop--> Stopped
//
// Topics and subscriptions can only be created while Connected. After Stop
// every mutation on the client, its topics or its subscriptions returns
// ErrClientStopped.
//
// # Publishing
//
//	topic, err := client.DeclareTopic("/test", value.TagInt)
//	res, err := topic.Set(1)      // ok
//	_, err = topic.Set(1.5)       // ErrTypeMismatch, nothing sent
//
// Validation happens in order: stopped client, unknown topic handle, type
// mismatch. A failed validation never issues a backend request. A backend
// refusal arrives later as a *backend.RejectedError on the Result and is also
// logged.
//
// # Subscription Cache
//
// Each Subscription holds a private objstore.ObjectStore. Refresh asks the
// backend for every sample newer than the cache timestamp, merges the delta
// into the cache history, rebuilds the current fields from the newest samples
// and moves the cache timestamp to the one reported by the backend.
//
// Refreshes of one subscription never overlap: concurrent calls are coalesced
// with singleflight and share the first caller's context and outcome. A
// refresh that completes after Unsubscribe, Stop or ClearCache is discarded.
//
// # Registry
//
// Registry keys clients by their identity string ("10.0.0.2:5810:dash").
// Starting an identity that is already registered replaces the old client,
// which is stopped locally only since the backend already dropped it.
package nt
