package nt

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/five82/ntdash/internal/backend"
)

// Registry tracks clients by identity string. Starting an identity that is
// already running replaces the old client.
type Registry struct {
	api  backend.API
	opts []Option

	startMu sync.Mutex

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry(api backend.API, opts ...Option) *Registry {
	return &Registry{
		api:     api,
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// Start connects a new client. An existing client with the same identity is
// stopped locally; the backend replaces it on its own.
func (r *Registry) Start(ctx context.Context, addr [4]byte, port uint16, identity string) (*Client, error) {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	c := NewClient(r.api, r.opts...)
	if err := c.Connect(ctx, addr, port, identity); err != nil {
		return nil, err
	}
	key := c.Identity().String()

	r.mu.Lock()
	old := r.clients[key]
	r.clients[key] = c
	r.mu.Unlock()

	if old != nil {
		old.detach()
	}
	return c, nil
}

func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Names lists running identities in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stop removes and stops the client with id. Unknown ids complete at once.
func (r *Registry) Stop(id string) *Result {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if !ok {
		return resolved(nil)
	}
	return c.Stop()
}

// StopAll stops every client and waits for the backend to acknowledge.
func (r *Registry) StopAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.Stop(name).Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
