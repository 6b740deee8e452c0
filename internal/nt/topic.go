package nt

import (
	"github.com/five82/ntdash/internal/backend"
	"github.com/five82/ntdash/internal/value"
)

// Topic is a typed topic declared by one client.
type Topic struct {
	client   *Client
	name     string
	tag      value.Tag
	declared *Result
}

func (t *Topic) Name() string   { return t.name }
func (t *Topic) Tag() value.Tag { return t.tag }

// Owner returns the identity of the declaring client.
func (t *Topic) Owner() backend.Identity { return t.client.Identity() }

// Declared reports whether the backend accepted the declaration.
func (t *Topic) Declared() *Result { return t.declared }

// Set converts x with value.FromAny and publishes it now. Integers become Int
// and floats become Double; use Publish with an explicit Value otherwise.
func (t *Topic) Set(x any) (*Result, error) {
	if err := t.client.checkTopic(t); err != nil {
		return nil, err
	}
	v, err := value.FromAny(x)
	if err != nil {
		return nil, err
	}
	return t.client.Publish(t, v)
}

// Publish sends v stamped with the current time.
func (t *Topic) Publish(v value.Value) (*Result, error) {
	return t.client.Publish(t, v)
}

// Unpublish removes the topic from its client.
func (t *Topic) Unpublish() *Result {
	return t.client.Unpublish(t)
}

func (c *Client) checkTopic(t *Topic) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.usableLocked(); err != nil {
		return err
	}
	if c.topics[t.name] != t {
		return ErrUnknownTopic
	}
	return nil
}
