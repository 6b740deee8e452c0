package nt

import "errors"

var (
	// ErrTypeMismatch is returned when a value's tag differs from the topic's.
	ErrTypeMismatch = errors.New("value type does not match topic type")
	// ErrDuplicateTopic is returned when a client already declared the name.
	ErrDuplicateTopic = errors.New("topic already declared")
	// ErrClientStopped is returned for any mutation after Stop.
	ErrClientStopped = errors.New("client stopped")
	// ErrNotConnected is returned for mutations before Connect succeeds.
	ErrNotConnected = errors.New("client not connected")
	// ErrAlreadyConnected is returned by a second Connect.
	ErrAlreadyConnected = errors.New("client already connected")
	// ErrUnknownTopic is returned when publishing through an unpublished or
	// foreign topic handle.
	ErrUnknownTopic = errors.New("topic not declared by this client")
	// ErrUnsubscribed is returned when refreshing a removed subscription.
	ErrUnsubscribed = errors.New("subscription removed")
)
