package backend

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/five82/ntdash/internal/objstore"
	"github.com/five82/ntdash/internal/value"
)

// Commands understood by the native backend.
const (
	CmdStartClient     = "start_network_table_client"
	CmdStopClient      = "stop_network_table_client"
	CmdClientExists    = "does_network_table_client_exist"
	CmdIsClientStopped = "is_network_table_client_stopped"
	CmdDeclareTopic    = "publish_topic"
	CmdSetTopicValue   = "set_topic_value"
	CmdUnpublishTopic  = "unpublish_topic"
	CmdSubscribe       = "subscribe_to_topic"
	CmdUnsubscribe     = "unsubscribe_from_topic"
	CmdSubbedData      = "get_subbed_data"
	CmdSubbedDataSince = "get_subbed_data_with_history"
)

// API is the typed command surface used by the client registry. It is
// implemented by *Client and can be faked in tests.
type API interface {
	StartClient(ctx context.Context, addr [4]byte, port uint16, identity string) (Identity, error)
	StopClient(ctx context.Context, id Identity) error
	ClientExists(ctx context.Context, id Identity) (bool, error)
	IsClientStopped(ctx context.Context, id Identity) (bool, error)
	DeclareTopic(ctx context.Context, id Identity, topic string, tag value.Tag) error
	SetTopicValue(ctx context.Context, id Identity, topic string, v value.Timestamped) error
	UnpublishTopic(ctx context.Context, id Identity, topic string) error
	Subscribe(ctx context.Context, id Identity, pattern string, opts SubscribeOptions) error
	Unsubscribe(ctx context.Context, id Identity, pattern string) error
	FetchSubbed(ctx context.Context, id Identity, pattern string) (*objstore.ObjectStore, error)
	FetchSubbedHistory(ctx context.Context, id Identity, pattern string, after value.Timestamp) (*objstore.ObjectStore, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Identity names one backend connection. Two identities never share topics or
// subscriptions.
type Identity struct {
	Address [4]byte `json:"ip"`
	Port    uint16  `json:"port"`
	Name    string  `json:"identity"`
}

func (id Identity) String() string {
	return netip.AddrFrom4(id.Address).String() + ":" + strconv.Itoa(int(id.Port)) + ":" + id.Name
}

// ParseAddress parses a dotted IPv4 address.
func ParseAddress(s string) ([4]byte, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return [4]byte{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	if !addr.Is4() {
		return [4]byte{}, fmt.Errorf("parse address %q: not IPv4", s)
	}
	return addr.As4(), nil
}

// TeamAddress returns the robot controller address for a team number,
// 10.TE.AM.2.
func TeamAddress(team int) ([4]byte, error) {
	if team <= 0 || team/100 > 255 {
		return [4]byte{}, fmt.Errorf("team number %d out of range", team)
	}
	return [4]byte{10, byte(team / 100), byte(team % 100), 2}, nil
}

// SubscribeOptions mirror the backend's subscription flags.
type SubscribeOptions struct {
	// Periodic is the backend's update period; zero leaves the server default.
	Periodic time.Duration
	// All asks for every sample instead of only the latest per period.
	All bool
	// Prefix matches every topic starting with the pattern.
	Prefix bool
}

// Client issues typed commands through an Invoker.
type Client struct {
	inv Invoker
}

func NewClient(inv Invoker) *Client {
	return &Client{inv: inv}
}

type clientArgs struct {
	ClientID Identity `json:"clientId"`
}

type topicArgs struct {
	ClientID Identity `json:"clientId"`
	Topic    string   `json:"topic"`
}

func (c *Client) StartClient(ctx context.Context, addr [4]byte, port uint16, identity string) (Identity, error) {
	args := struct {
		IP       [4]byte `json:"ip"`
		Port     uint16  `json:"port"`
		Identity string  `json:"identity"`
	}{addr, port, identity}
	var id Identity
	if err := c.inv.Invoke(ctx, CmdStartClient, args, &id); err != nil {
		return Identity{}, err
	}
	// Older bridges reply without a body.
	if id == (Identity{}) {
		id = Identity{Address: addr, Port: port, Name: identity}
	}
	return id, nil
}

func (c *Client) StopClient(ctx context.Context, id Identity) error {
	return c.inv.Invoke(ctx, CmdStopClient, clientArgs{id}, nil)
}

func (c *Client) ClientExists(ctx context.Context, id Identity) (bool, error) {
	var exists bool
	if err := c.inv.Invoke(ctx, CmdClientExists, clientArgs{id}, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *Client) IsClientStopped(ctx context.Context, id Identity) (bool, error) {
	var stopped bool
	if err := c.inv.Invoke(ctx, CmdIsClientStopped, clientArgs{id}, &stopped); err != nil {
		return false, err
	}
	return stopped, nil
}

func (c *Client) DeclareTopic(ctx context.Context, id Identity, topic string, tag value.Tag) error {
	args := struct {
		ClientID Identity  `json:"clientId"`
		Topic    string    `json:"topic"`
		Type     value.Tag `json:"type"`
	}{id, topic, tag}
	return c.inv.Invoke(ctx, CmdDeclareTopic, args, nil)
}

func (c *Client) SetTopicValue(ctx context.Context, id Identity, topic string, v value.Timestamped) error {
	args := struct {
		ClientID Identity          `json:"clientId"`
		Topic    string            `json:"topic"`
		Value    value.Timestamped `json:"value"`
	}{id, topic, v}
	return c.inv.Invoke(ctx, CmdSetTopicValue, args, nil)
}

func (c *Client) UnpublishTopic(ctx context.Context, id Identity, topic string) error {
	return c.inv.Invoke(ctx, CmdUnpublishTopic, topicArgs{id, topic}, nil)
}

func (c *Client) Subscribe(ctx context.Context, id Identity, pattern string, opts SubscribeOptions) error {
	args := struct {
		ClientID Identity `json:"clientId"`
		Topic    string   `json:"topic"`
		Periodic *float64 `json:"periodic,omitempty"`
		All      bool     `json:"all"`
		Prefix   bool     `json:"prefix"`
	}{ClientID: id, Topic: pattern, All: opts.All, Prefix: opts.Prefix}
	if opts.Periodic > 0 {
		seconds := opts.Periodic.Seconds()
		args.Periodic = &seconds
	}
	return c.inv.Invoke(ctx, CmdSubscribe, args, nil)
}

func (c *Client) Unsubscribe(ctx context.Context, id Identity, pattern string) error {
	return c.inv.Invoke(ctx, CmdUnsubscribe, topicArgs{id, pattern}, nil)
}

// FetchSubbed returns the current values for a subscription.
func (c *Client) FetchSubbed(ctx context.Context, id Identity, pattern string) (*objstore.ObjectStore, error) {
	out := objstore.New(0)
	if err := c.inv.Invoke(ctx, CmdSubbedData, topicArgs{id, pattern}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSubbedHistory returns current values plus every sample newer than after.
func (c *Client) FetchSubbedHistory(ctx context.Context, id Identity, pattern string, after value.Timestamp) (*objstore.ObjectStore, error) {
	args := struct {
		ClientID Identity        `json:"clientId"`
		Topic    string          `json:"topic"`
		After    value.Timestamp `json:"after"`
	}{id, pattern, after}
	out := objstore.New(0)
	if err := c.inv.Invoke(ctx, CmdSubbedDataSince, args, out); err != nil {
		return nil, err
	}
	return out, nil
}
