package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching on top of Client.
// Values must be JSON-encodable (NaN is not; callers convert to nullable DTOs).
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Enabled reports whether reads and writes reach Redis
func (c *Cache) Enabled() bool {
	return c.client != nil && c.client.Enabled()
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute
	TTLMedium = 10 * time.Minute
	TTLLong   = 1 * time.Hour
	TTLDaily  = 24 * time.Hour // 일별 펀더멘털 / 결과
)

// WindowKey identifies one loaded history window
func WindowKey(field string, asOf string, length int, assets []string) string {
	return fmt.Sprintf("window:%s:%s:%d:%s", field, asOf, length, AssetsDigest(assets))
}

// ResultKey identifies one rendered query result
func ResultKey(configHash string, date string) string {
	return fmt.Sprintf("result:%s:%s", configHash, date)
}

// LatestResultKey points at the most recent scheduled result for a config
func LatestResultKey(configHash string) string {
	return fmt.Sprintf("result:%s:latest", configHash)
}

// AssetsDigest is an order-insensitive short hash of an asset list
func AssetsDigest(assets []string) string {
	sorted := make([]string, len(assets))
	copy(sorted, assets)
	sort.Strings(sorted)

	sum := sha1.Sum([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(sum[:8])
}
