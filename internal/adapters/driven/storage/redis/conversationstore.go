// Package redis provides a Redis-backed conversation store for deployments
// that run more than one server process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// keyPrefix namespaces conversation keys.
const keyPrefix = "conversation:"

// redisClient is the subset of the go-redis client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// ConversationStore keeps session contexts as JSON values with a TTL.
type ConversationStore struct {
	client redisClient
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewConversationStore connects to Redis and verifies the connection.
func NewConversationStore(ctx context.Context, opts Options) (*ConversationStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty: %w", domain.ErrInvalidConfig)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return newConversationStore(client), nil
}

func newConversationStore(client redisClient) *ConversationStore {
	return &ConversationStore{client: client}
}

// Load retrieves the context of a conversation.
func (s *ConversationStore) Load(ctx context.Context, conversationID string) (*domain.SessionContext, error) {
	val, err := s.client.Get(ctx, key(conversationID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
	}

	var sc domain.SessionContext
	if err := json.Unmarshal(val, &sc); err != nil {
		return nil, fmt.Errorf("decoding conversation %s: %w", conversationID, err)
	}
	return &sc, nil
}

// Save stores the context and resets its expiry. A non-positive ttl
// stores the key without expiry.
func (s *ConversationStore) Save(ctx context.Context, sc *domain.SessionContext, ttl time.Duration) error {
	if sc == nil || sc.ConversationID == "" {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding conversation %s: %w", sc.ConversationID, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key(sc.ConversationID), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving conversation %s: %w", sc.ConversationID, err)
	}
	return nil
}

// Delete removes a conversation.
func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, key(conversationID)).Err(); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", conversationID, err)
	}
	return nil
}

// Ping checks the connection.
func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}

func key(conversationID string) string {
	return keyPrefix + conversationID
}
