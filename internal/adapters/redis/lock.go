package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out SET NX locks with a TTL so a crashed holder cannot block
// others forever.
type Locker struct {
	client goredis.Cmdable
	prefix string
}

// NewLocker creates a locker whose keys are namespaced by prefix.
func NewLocker(client goredis.Cmdable, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Key returns the redis key for name.
func (l *Locker) Key(name string) string {
	return l.prefix + "lock:" + name
}

// Acquire takes the named lock for ttl. ok is false when someone else
// holds it. release is only non-nil when ok is true.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	if name == "" {
		return nil, false, ErrKeyEmpty
	}
	if ttl <= 0 {
		return nil, false, ErrInvalidTTL
	}
	key := l.Key(name)
	token := uuid.NewString()

	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, true, nil
}
