package nt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/ntdash/internal/backend"
	"github.com/five82/ntdash/internal/objstore"
	"github.com/five82/ntdash/internal/value"
)

// State is the lifecycle stage of a Client.
type State int

const (
	Disconnected State = iota
	Connected
	Stopped
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SubscribeOptions are passed through to the backend unchanged.
type SubscribeOptions = backend.SubscribeOptions

const (
	forwardTimeout     = 10 * time.Second
	refreshConcurrency = 4
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for asynchronous failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer for refresh and publish events.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithHistoryLimit caps each subscription cache to n samples per path.
// n <= 0 keeps everything.
func WithHistoryLimit(n int) Option {
	return func(c *Client) {
		c.historyLimit = n
	}
}

// Client is one connection identity with its own topic and subscription
// registries.
type Client struct {
	api          backend.API
	logger       *zap.Logger
	observer     Observer
	historyLimit int

	connectMu sync.Mutex

	mu     sync.RWMutex
	state  State
	id     backend.Identity
	topics map[string]*Topic
	subs   []*Subscription
}

func NewClient(api backend.API, opts ...Option) *Client {
	c := &Client{
		api:      api,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		topics:   make(map[string]*Topic),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect starts the backend client. It is only valid while Disconnected.
func (c *Client) Connect(ctx context.Context, addr [4]byte, port uint16, identity string) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	switch c.State() {
	case Connected:
		return ErrAlreadyConnected
	case Stopped:
		return ErrClientStopped
	}

	id, err := c.api.StartClient(ctx, addr, port, identity)
	if err != nil {
		return fmt.Errorf("start client %s: %w", backend.Identity{Address: addr, Port: port, Name: identity}, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		// Stop ran while the backend was starting the client.
		c.forward(backend.CmdStopClient, func(ctx context.Context) error {
			return c.api.StopClient(ctx, id)
		})
		return ErrClientStopped
	}
	c.id = id
	c.state = Connected
	c.logger = c.logger.With(zap.String("client", id.String()))
	c.logger.Info("client connected")
	return nil
}

func (c *Client) Identity() backend.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// usableLocked reports why the client cannot be mutated, if it cannot.
func (c *Client) usableLocked() error {
	switch c.state {
	case Stopped:
		return ErrClientStopped
	case Disconnected:
		return ErrNotConnected
	}
	return nil
}

// DeclareTopic registers a typed topic. The backend is told asynchronously;
// Topic.Declared reports the outcome.
func (c *Client) DeclareTopic(name string, tag value.Tag) (*Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("topic name is empty")
	}
	if !tag.Valid() {
		return nil, fmt.Errorf("declare %s: invalid type %s", name, tag)
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if _, ok := c.topics[name]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTopic, name)
	}
	id := c.id
	t := &Topic{client: c, name: name, tag: tag}
	t.declared = c.forward(backend.CmdDeclareTopic, func(ctx context.Context) error {
		return c.api.DeclareTopic(ctx, id, name, tag)
	})
	c.topics[name] = t
	c.mu.Unlock()
	return t, nil
}

// Publish sends v on t stamped with the current time.
func (c *Client) Publish(t *Topic, v value.Value) (*Result, error) {
	return c.PublishAt(t, v, value.Now())
}

// PublishAt sends v on t with an explicit timestamp. Validation failures are
// returned directly and nothing reaches the backend. NaN and infinite
// payloads cannot be encoded and fail with value.ErrUnsupportedShape.
func (c *Client) PublishAt(t *Topic, v value.Value, ts value.Timestamp) (*Result, error) {
	c.mu.RLock()
	err := c.usableLocked()
	if err == nil && (t == nil || c.topics[t.name] != t) {
		err = ErrUnknownTopic
	}
	id := c.id
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, value.ErrUnsupportedShape
	}
	if !v.IsFinite() {
		return nil, fmt.Errorf("%w: %s is not finite", value.ErrUnsupportedShape, v)
	}
	if v.Tag() != t.tag {
		return nil, fmt.Errorf("%w: %s is %s, value is %s", ErrTypeMismatch, t.name, t.tag, v.Tag())
	}
	sample, err := value.NewTimestamped(v, ts)
	if err != nil {
		return nil, err
	}

	c.observer.Published(t.name, t.tag)
	return c.forward(backend.CmdSetTopicValue, func(ctx context.Context) error {
		return c.api.SetTopicValue(ctx, id, t.name, sample)
	}), nil
}

// Unpublish removes t. Unpublishing a topic that is already gone completes
// immediately without contacting the backend.
func (c *Client) Unpublish(t *Topic) *Result {
	if t == nil {
		return resolved(nil)
	}
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return resolved(ErrClientStopped)
	}
	if c.topics[t.name] != t {
		c.mu.Unlock()
		return resolved(nil)
	}
	delete(c.topics, t.name)
	id := c.id
	c.mu.Unlock()

	return c.forward(backend.CmdUnpublishTopic, func(ctx context.Context) error {
		return c.api.UnpublishTopic(ctx, id, t.name)
	})
}

// Topic returns the declared topic with name.
func (c *Client) Topic(name string) (*Topic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.topics[name]
	return t, ok
}

// TopicNames lists declared topics in name order.
func (c *Client) TopicNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Subscribe creates the local subscription immediately. The returned Result
// reports whether the backend accepted it.
func (c *Client) Subscribe(pattern string, opts SubscribeOptions) (*Subscription, *Result, error) {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return nil, nil, err
	}
	sub := &Subscription{
		client:  c,
		pattern: pattern,
		opts:    opts,
		cache:   objstore.New(0),
	}
	c.subs = append(c.subs, sub)
	id := c.id
	c.mu.Unlock()

	res := c.forward(backend.CmdSubscribe, func(ctx context.Context) error {
		return c.api.Subscribe(ctx, id, pattern, opts)
	})
	return sub, res, nil
}

// Unsubscribe stops future refreshes of sub. A refresh already in flight is
// allowed to finish but its data is dropped. The backend keeps one
// subscription per pattern, so it is only told once the last local
// subscription to the pattern is gone.
func (c *Client) Unsubscribe(sub *Subscription) *Result {
	if sub == nil {
		return resolved(nil)
	}
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return resolved(ErrClientStopped)
	}
	idx := slices.Index(c.subs, sub)
	if idx < 0 {
		c.mu.Unlock()
		return resolved(nil)
	}
	c.subs = slices.Delete(c.subs, idx, idx+1)
	shared := slices.ContainsFunc(c.subs, func(o *Subscription) bool { return o.pattern == sub.pattern })
	id := c.id
	c.mu.Unlock()

	sub.close(ErrUnsubscribed)
	if shared {
		return resolved(nil)
	}
	return c.forward(backend.CmdUnsubscribe, func(ctx context.Context) error {
		return c.api.Unsubscribe(ctx, id, sub.pattern)
	})
}

// Subscriptions returns the active subscriptions in creation order.
func (c *Client) Subscriptions() []*Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.subs)
}

// RefreshAll refreshes every active subscription concurrently and returns the
// first failure.
func (c *Client) RefreshAll(ctx context.Context) error {
	if c.State() == Stopped {
		return ErrClientStopped
	}
	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, sub := range c.Subscriptions() {
		g.Go(func() error {
			_, err := sub.Refresh(ctx)
			return err
		})
	}
	return g.Wait()
}

// Stop moves the client to Stopped and tells the backend. Every topic and
// subscription of the client is invalidated at once.
func (c *Client) Stop() *Result {
	id, wasConnected, ok := c.detach()
	if !ok || !wasConnected {
		return resolved(nil)
	}
	return c.forward(backend.CmdStopClient, func(ctx context.Context) error {
		return c.api.StopClient(ctx, id)
	})
}

// detach stops the client locally without contacting the backend. ok is
// false when the client was already stopped.
func (c *Client) detach() (id backend.Identity, wasConnected, ok bool) {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return backend.Identity{}, false, false
	}
	wasConnected = c.state == Connected
	c.state = Stopped
	subs := c.subs
	c.subs = nil
	id = c.id
	c.mu.Unlock()

	for _, sub := range subs {
		sub.close(ErrClientStopped)
	}
	c.logger.Info("client stopped")
	return id, wasConnected, true
}

// forward runs fn in the background and reports its outcome through a
// Result. Failures are logged; nothing is retried.
func (c *Client) forward(command string, fn func(ctx context.Context) error) *Result {
	res := newResult()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		defer cancel()
		err := fn(ctx)
		if err != nil {
			c.logger.Warn("backend request failed", zap.String("command", command), zap.Error(err))
			if errors.Is(err, backend.ErrBackendRejected) {
				c.observer.Rejected(command)
			}
		}
		res.finish(err)
	}()
	return res
}
