package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache stores JSON-encoded values in Valkey (Redis-compatible) so
// memoized lookups survive process restarts.
type ValkeyCache[V any] struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyClient connects to a Valkey server.
func NewValkeyClient(addr string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return client, nil
}

// NewValkeyCache namespaces keys with prefix. ttl <= 0 keeps entries forever.
func NewValkeyCache[V any](client valkey.Client, prefix string, ttl time.Duration) *ValkeyCache[V] {
	return &ValkeyCache[V]{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves and decodes the value stored under key.
func (c *ValkeyCache[V]) Get(ctx context.Context, key string) (V, error) {
	var v V
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return v, ErrNotFound
		}
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, errors.Join(ErrNotFound, err)
	}
	return v, nil
}

// Set encodes value and stores it under key.
func (c *ValkeyCache[V]) Set(ctx context.Context, key string, value V) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var cmd valkey.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(c.prefix + key).Value(string(b)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(c.prefix + key).Value(string(b)).Build()
	}
	return c.client.Do(ctx, cmd).Error()
}
