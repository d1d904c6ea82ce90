package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoPending is returned when a user has no pending link on file.
var ErrNoPending = errors.New("no pending download")

// PendingStore keeps the link a user sent while they are still deciding what
// to do with it (plan buttons, confirmation, etc). Backed by Redis with a TTL
// instead of a process-global map, so it survives restarts and works with
// more than one bot process.
type PendingStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPendingStore(addr, password string, ttl time.Duration) (*PendingStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &PendingStore{rdb: rdb, ttl: ttl}, nil
}

func pendingKey(userID int64) string {
	return fmt.Sprintf("pending:%d", userID)
}

// Put stores the user's pending link, replacing any previous one.
func (p *PendingStore) Put(ctx context.Context, userID int64, link string) error {
	if err := p.rdb.Set(ctx, pendingKey(userID), link, p.ttl).Err(); err != nil {
		return fmt.Errorf("save pending link for %d: %w", userID, err)
	}
	return nil
}

// Get returns the user's pending link, or ErrNoPending when absent or
// already expired.
func (p *PendingStore) Get(ctx context.Context, userID int64) (string, error) {
	link, err := p.rdb.Get(ctx, pendingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoPending
	}
	if err != nil {
		return "", fmt.Errorf("load pending link for %d: %w", userID, err)
	}
	return link, nil
}

// Delete drops the user's pending link, if any.
func (p *PendingStore) Delete(ctx context.Context, userID int64) error {
	if err := p.rdb.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete pending link for %d: %w", userID, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *PendingStore) Close() error {
	return p.rdb.Close()
}
