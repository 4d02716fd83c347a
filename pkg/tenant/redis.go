package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache stores resolved tenants in Redis so that a fleet of processes
// shares one resolution cache and one eviction. Entries are JSON-encoded;
// Redis handles TTL expiry.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. The client is owned by the
// caller and is not closed by Close. Keys are namespaced with prefix
// (defaults to "tenant:").
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if prefix == "" {
		prefix = "tenant:"
	}
	return &redisCache{client: client, prefix: prefix}
}

// redisEnvelope re-exposes the fields the public JSON shape hides. The
// cache must round-trip the connection string and provisioning checkpoint,
// which are stripped from API responses.
type redisEnvelope struct {
	Tenant
	ConnString    string `json:"conn_string"`
	ProvisionStep Step   `json:"provision_step"`
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Unreadable entry: drop it so the next miss refills cleanly.
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	t := env.Tenant
	t.ConnString = env.ConnString
	t.ProvisionStep = env.ProvisionStep
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	raw, err := json.Marshal(redisEnvelope{Tenant: *t, ConnString: t.ConnString, ProvisionStep: t.ProvisionStep})
	if err != nil {
		return
	}
	// Best effort: a failed write only means the next read is a miss.
	c.client.Set(ctx, c.prefix+key, raw, ttl)
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

func (c *redisCache) Close() error {
	return nil
}
