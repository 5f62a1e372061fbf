package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClientStore is the production ClientStore, backed by a Valkey/Redis
// instance reachable through a *redis.Client. Keys live under the
// "client:" namespace and carry the configured TTL as a native Redis
// expiry (SET ... EX).
type RedisClientStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClientStore wraps rdb as a ClientStore with the given TTL.
func NewRedisClientStore(rdb *redis.Client, ttl time.Duration) *RedisClientStore {
	return &RedisClientStore{rdb: rdb, ttl: ttl}
}

func clientKey(addr string) string {
	return "client:" + addr
}

func (s *RedisClientStore) Add(ctx context.Context, addr, clientID string) error {
	if err := s.rdb.Set(ctx, clientKey(addr), clientID, s.ttl).Err(); err != nil {
		return &StoreError{Op: "add", Key: clientKey(addr), Parent: translateRedisErr(err)}
	}
	return nil
}

func (s *RedisClientStore) Get(ctx context.Context, addr string) (string, error) {
	clientID, err := s.rdb.Get(ctx, clientKey(addr)).Result()
	if err != nil {
		return "", &StoreError{Op: "get", Key: clientKey(addr), Parent: translateRedisErr(err)}
	}
	return clientID, nil
}

func (s *RedisClientStore) Delete(ctx context.Context, addr string) error {
	if err := s.rdb.Del(ctx, clientKey(addr)).Err(); err != nil {
		return &StoreError{Op: "delete", Key: clientKey(addr), Parent: translateRedisErr(err)}
	}
	return nil
}

func (s *RedisClientStore) ExtendTTL(ctx context.Context, addr string) error {
	if err := s.rdb.Expire(ctx, clientKey(addr), s.ttl).Err(); err != nil {
		return &StoreError{Op: "extend_ttl", Key: clientKey(addr), Parent: translateRedisErr(err)}
	}
	return nil
}

// RedisTopicStore is the production TopicStore. Per-client topic lists are
// Redis lists under the "topic:" namespace, with RPUSH used for
// registration and LINDEX for lookup — the 1-based topic-id maps directly
// to a 0-based list index.
type RedisTopicStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTopicStore wraps rdb as a TopicStore with the given TTL.
func NewRedisTopicStore(rdb *redis.Client, ttl time.Duration) *RedisTopicStore {
	return &RedisTopicStore{rdb: rdb, ttl: ttl}
}

func topicKey(clientID string) string {
	return "topic:" + clientID
}

func (s *RedisTopicStore) AddTopic(ctx context.Context, clientID, topicName string) (uint16, error) {
	key := topicKey(clientID)
	length, err := s.rdb.RPush(ctx, key, topicName).Result()
	if err != nil {
		return 0, &StoreError{Op: "add_topic", Key: key, Parent: translateRedisErr(err)}
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return 0, &StoreError{Op: "add_topic", Key: key, Parent: translateRedisErr(err)}
	}
	if length <= 0 || length > int64(^uint16(0)) {
		return 0, &StoreError{Op: "add_topic", Key: key, Parent: errors.Join(ErrUnavailable, fmt.Errorf("topic list length %d out of range", length))}
	}
	return uint16(length), nil
}

func (s *RedisTopicStore) GetTopic(ctx context.Context, clientID string, topicID uint16) (string, error) {
	key := topicKey(clientID)
	if topicID < 1 {
		return "", &StoreError{Op: "get_topic", Key: key, Parent: ErrNotFound}
	}
	name, err := s.rdb.LIndex(ctx, key, int64(topicID)-1).Result()
	if err != nil {
		return "", &StoreError{Op: "get_topic", Key: key, Parent: translateRedisErr(err)}
	}
	return name, nil
}

func (s *RedisTopicStore) DeleteAll(ctx context.Context, clientID string) error {
	key := topicKey(clientID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return &StoreError{Op: "delete_all", Key: key, Parent: translateRedisErr(err)}
	}
	return nil
}

func (s *RedisTopicStore) ExtendTTL(ctx context.Context, clientID string) error {
	key := topicKey(clientID)
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return &StoreError{Op: "extend_ttl", Key: key, Parent: translateRedisErr(err)}
	}
	return nil
}

// translateRedisErr maps go-redis's error vocabulary onto the store's two
// exported error kinds, so callers above the store boundary never see a
// *redis.Error or net.Error directly.
func translateRedisErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return errors.Join(ErrUnavailable, err)
}
