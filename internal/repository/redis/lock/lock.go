// Package lock provides the advisory locks that serialize shift writes for
// one staff member and date.
package lock

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/pkg/retry"
)

// Options controls how long a lock lives and how hard Lock tries to get it.
type Options struct {
	TTL      time.Duration
	Attempts int
	Backoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Second
	}
	if o.Attempts < 1 {
		o.Attempts = 3
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	return o
}

// release deletes the key only while it still holds our token, so a holder
// whose TTL expired cannot free somebody else's lock.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX PX lock shared by every API instance.
type Redis struct {
	client *redis.Client
	log    *log.Logger
	opts   Options
}

func NewRedis(client *redis.Client, log *log.Logger, opts Options) *Redis {
	return &Redis{client: client, log: log, opts: opts.withDefaults()}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	for attempt := 1; ; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, r.opts.TTL).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "acquiring lock %s", key)
		}
		if ok {
			break
		}

		if attempt >= r.opts.Attempts {
			return nil, apperr.New(apperr.LockTimeout, "lock %s is busy", key)
		}
		if err := retry.Sleep(ctx, r.opts.Backoff); err != nil {
			return nil, err
		}
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := release.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			r.log.Printf("lock : release %s : %v", key, err)
		}
	}

	return unlock, nil
}

// Local is an in-process lock used when no redis address is configured.
// It only serializes writers inside a single process. A key's slot lives
// only while somebody holds or waits for it.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
	opts  Options
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal(opts Options) *Local {
	return &Local{slots: map[string]*slot{}, opts: opts.withDefaults()}
}

func (l *Local) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Lock waits up to Attempts*Backoff (at least one TTL when Backoff is zero)
// for the key to become free.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquire(key)

	wait := time.Duration(l.opts.Attempts) * l.opts.Backoff
	if wait <= 0 {
		wait = l.opts.TTL
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-timer.C:
		l.drop(key, s)
		return nil, apperr.New(apperr.LockTimeout, "lock %s is busy", key)
	case <-ctx.Done():
		l.drop(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
	}, nil
}
