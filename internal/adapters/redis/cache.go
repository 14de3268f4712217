package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func slotKey(date, slot string) string {
	return "slot:" + date + ":" + slot
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireSlot takes the creation lock of a (date, slot) pair. The returned
// release func is nil when the lock is held by someone else.
func (c *Cache) AcquireSlot(ctx context.Context, date, slot string, ttl time.Duration) (func(context.Context), error) {
	key := slotKey(date, slot)
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "lock slot %s", key)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) {
		releaseScript.Run(ctx, c.client, []string{key}, token)
	}, nil
}
