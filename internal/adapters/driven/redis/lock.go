package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure Locker implements the interface.
var _ driven.DocumentLocker = (*Locker)(nil)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker takes per-document locks with SET NX PX. Each lease carries a
// random token so an expired holder cannot release a successor's lock.
type Locker struct {
	client redis.UniversalClient
	keys   keyspace
	ttl    time.Duration
}

// NewLocker creates a locker whose locks expire after ttl.
func NewLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Locker{client: client, keys: keyspace(prefix + "lock"), ttl: ttl}
}

// TryLock acquires the lock without waiting.
func (l *Locker) TryLock(ctx context.Context, documentID string) (driven.Lease, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	key := l.keys.key(documentID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock for %s: %w", documentID, err)
	}
	if !ok {
		return nil, domain.ErrDeletionInProgress
	}
	return &lease{client: l.client, key: key, token: token}, nil
}

type lease struct {
	client redis.UniversalClient
	key    string
	token  string

	once sync.Once
	err  error
}

func (l *lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
			l.err = fmt.Errorf("releasing lock %s: %w", l.key, err)
		}
	})
	return l.err
}
