// Package history persists recent search queries in a key-value store
// so they survive process restarts and can seed suggestions.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DefaultMaxEntries is how many distinct queries are retained.
const DefaultMaxEntries = 20

// defaultKey is the key the encoded history array lives under.
const defaultKey = "fedsearch:history"

// Store keeps an ordered, most-recent-first list of distinct prior
// query strings as a JSON-encoded array under a single key. Decode
// failures degrade to an empty history.
type Store struct {
	client     *redis.Client
	key        string
	maxEntries int
	logger     logrus.FieldLogger
}

// NewStore connects to redis and returns a history store.
func NewStore(redisAddr, password string, db int, logger logrus.FieldLogger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewStoreWithClient(client, logger), nil
}

// NewStoreWithClient wraps an existing redis client.
func NewStoreWithClient(client *redis.Client, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		client:     client,
		key:        defaultKey,
		maxEntries: DefaultMaxEntries,
		logger:     logger,
	}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies connectivity to the backing store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// List returns the stored queries, most recent first. A missing key
// or malformed payload yields an empty history, never an error from
// decoding.
func (s *Store) List(ctx context.Context) ([]string, error) {
	payload, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}

	var queries []string
	if err := json.Unmarshal([]byte(payload), &queries); err != nil {
		s.logger.WithError(err).Warn("malformed search history, resetting")
		return []string{}, nil
	}
	return queries, nil
}

// Record prepends a query to the history, deduplicating it against
// prior entries and trimming to the retention limit.
func (s *Store) Record(ctx context.Context, query string) error {
	if query == "" {
		return nil
	}

	existing, err := s.List(ctx)
	if err != nil {
		return err
	}

	updated := make([]string, 0, len(existing)+1)
	updated = append(updated, query)
	for _, prior := range existing {
		if prior == query {
			continue
		}
		updated = append(updated, prior)
	}
	if len(updated) > s.maxEntries {
		updated = updated[:s.maxEntries]
	}

	payload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write search history: %w", err)
	}
	return nil
}
