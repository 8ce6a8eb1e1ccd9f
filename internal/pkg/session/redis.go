package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "hris:session:"
	lockKeyPrefix    = "hris:session-lock:"

	lockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares sessions and per-user locks between API instances.
// Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client  redis.Cmdable
	config  Config
	lockTTL time.Duration
	token   func() string
	now     func() time.Time
}

func NewRedisStore(client redis.Cmdable, cfg Config) *RedisStore {
	cfg = cfg.withDefaults()
	return &RedisStore{
		client:  client,
		config:  cfg,
		lockTTL: 30 * time.Second,
		token:   uuid.NewString,
		now:     time.Now,
	}
}

func sessionKey(userID string) string { return sessionKeyPrefix + userID }

func lockKey(userID string) string { return lockKeyPrefix + userID }

// Lock implements conversation.SessionStore with SET NX and a token checked
// on release, so a lock that outlived its TTL is never released by its
// previous holder.
func (r *RedisStore) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockKey(userID)
	token := r.token()
	deadline := r.now().Add(r.config.LockTimeout)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			break
		}
		if !r.now().Before(deadline) {
			return nil, conversation.ErrSessionBusy
		}

		select {
		case <-ctx.Done():
			return nil, conversation.ErrSessionBusy
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
			slog.Error("failed to release session lock", "user_id", userID, "error", err)
		}
	}, nil
}

// Get implements conversation.SessionStore.
func (r *RedisStore) Get(ctx context.Context, userID string) (conversation.Session, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return conversation.Session{}, false, nil
		}
		return conversation.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var s conversation.Session
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("discarding unreadable session", "user_id", userID, "error", err)
		return conversation.Session{}, false, r.Delete(ctx, userID)
	}
	if s.Expired(r.now(), r.config.TTL) {
		return conversation.Session{}, false, r.Delete(ctx, userID)
	}
	return s, true, nil
}

// Save implements conversation.SessionStore. Every save restarts the TTL.
func (r *RedisStore) Save(ctx context.Context, s conversation.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.UserID), data, r.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements conversation.SessionStore.
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Sweep implements conversation.SessionStore. Redis expires keys on its
// own, so there is nothing to evict here.
func (r *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
