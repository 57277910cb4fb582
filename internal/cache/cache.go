package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/config"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"go.uber.org/zap"
)

const (
	// Cache key prefix
	CacheKeyPrefix = "knapsnack:"

	// Stats keys
	StatsHitsKey   = "knapsnack:stats:hits"
	StatsMissesKey = "knapsnack:stats:misses"
)

// Query identifies one solve: the same query always yields the same result.
type Query struct {
	Bottles      map[int]int
	TargetWeight int
	BagWeight    int
	Params       algorithm.Params
}

// CachedResult represents a cached solve result
type CachedResult struct {
	TargetWeight      int           `json:"target_weight"`
	BagWeight         int           `json:"bag_weight"`
	Combo             map[int]int   `json:"combo"`
	TotalWeight       int           `json:"total_weight"`
	BottlesUsed       int           `json:"bottles_used"`
	Overshoot         bool          `json:"overshoot"`
	CalculationTimeMs int64         `json:"calculation_time_ms"`
	CachedAt          time.Time     `json:"cached_at"`
	HitCount          int           `json:"hit_count"`
	CurrentTTL        time.Duration `json:"current_ttl"`
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}

// Cache memoizes solve results in Redis. A disabled Cache turns every call into a no-op.
type Cache struct {
	client     *redis.Client
	enabled    bool
	initialTTL time.Duration
	maxTTL     time.Duration
}

// NewCache connects to Redis when enabled. Connection failures disable the cache instead of failing.
func NewCache(ctx context.Context, cfg config.Redis) *Cache {
	if !cfg.Enabled {
		logger.Log.Info("Redis cache is disabled")
		return &Cache{enabled: false}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("Failed to connect to Redis. Cache disabled.",
			zap.String("address", cfg.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return &Cache{enabled: false}
	}

	logger.Log.Info("Redis cache enabled", zap.String("address", cfg.Addr))
	return newWithClient(client, cfg.InitialTTL, cfg.MaxTTL)
}

func newWithClient(client *redis.Client, initialTTL, maxTTL time.Duration) *Cache {
	return &Cache{
		client:     client,
		enabled:    true,
		initialTTL: initialTTL,
		maxTTL:     maxTTL,
	}
}

// IsEnabled returns whether caching is enabled
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

// generateKey hashes the normalized query. Bottle classes are written in
// ascending weight order and zero counts are dropped, so equivalent
// inventories share a key.
func (c *Cache) generateKey(q Query) string {
	var b strings.Builder
	for _, w := range slices.Sorted(maps.Keys(q.Bottles)) {
		if q.Bottles[w] == 0 {
			continue
		}
		fmt.Fprintf(&b, "%d*%d,", w, q.Bottles[w])
	}
	fmt.Fprintf(&b, "|%d|%d|%t|%s|%d",
		q.TargetWeight,
		q.BagWeight,
		q.Params.AllowOvershoot,
		strconv.FormatFloat(q.Params.OvershootRatio, 'g', -1, 64),
		q.Params.BottlePenalty,
	)

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash[:16])
}

// Get retrieves a cached result and doubles its TTL, up to the maximum.
func (c *Cache) Get(ctx context.Context, q Query) (*CachedResult, bool) {
	if !c.enabled {
		return nil, false
	}

	key := c.generateKey(q)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.incrementMisses(ctx)
		return nil, false
	} else if err != nil {
		logger.Log.Warn("Cache get error", zap.Error(err))
		c.incrementMisses(ctx)
		return nil, false
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Log.Warn("Cache unmarshal error", zap.Error(err))
		c.incrementMisses(ctx)
		return nil, false
	}

	result.HitCount++
	newTTL := result.CurrentTTL * 2
	if newTTL > c.maxTTL {
		newTTL = c.maxTTL
	}
	result.CurrentTTL = newTTL

	if err := c.set(ctx, key, &result, newTTL); err != nil {
		logger.Log.Warn("Failed to update cache TTL", zap.Error(err))
	}

	c.incrementHits(ctx)
	return &result, true
}

// Set stores a solve result in cache
func (c *Cache) Set(ctx context.Context, q Query, result algorithm.Result, calcTime int64) error {
	if !c.enabled {
		return nil
	}

	cached := &CachedResult{
		TargetWeight:      q.TargetWeight,
		BagWeight:         q.BagWeight,
		Combo:             result.Combo,
		TotalWeight:       result.TotalWeight,
		BottlesUsed:       result.BottlesUsed,
		Overshoot:         result.Overshoot,
		CalculationTimeMs: calcTime,
		CachedAt:          time.Now(),
		HitCount:          0,
		CurrentTTL:        c.initialTTL,
	}

	return c.set(ctx, c.generateKey(q), cached, c.initialTTL)
}

func (c *Cache) set(ctx context.Context, key string, result *CachedResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// GetStats returns cache statistics
func (c *Cache) GetStats(ctx context.Context) (*CacheStats, error) {
	if !c.enabled {
		return &CacheStats{MemoryUsed: "N/A", Uptime: "N/A"}, nil
	}

	hits, _ := c.client.Get(ctx, StatsHitsKey).Int64()
	misses, _ := c.client.Get(ctx, StatsMissesKey).Int64()

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	keys, err := c.resultKeys(ctx)
	if err != nil {
		return nil, err
	}

	memoryUsed := "N/A"
	uptime := "N/A"
	if info, err := c.client.Info(ctx, "memory", "server").Result(); err == nil {
		if v := parseInfoField(info, "used_memory_human"); v != "" {
			memoryUsed = v
		}
		if secs, err := strconv.Atoi(parseInfoField(info, "uptime_in_seconds")); err == nil {
			uptime = (time.Duration(secs) * time.Second).String()
		}
	}

	return &CacheStats{
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
		TotalKeys:  int64(len(keys)),
		MemoryUsed: memoryUsed,
		Uptime:     uptime,
	}, nil
}

// Clear removes all cached results and resets the counters
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	keys, err := c.resultKeys(ctx)
	if err != nil {
		return err
	}

	keys = append(keys, StatsHitsKey, StatsMissesKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.enabled && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// resultKeys lists cached result keys, leaving the stats counters out.
func (c *Cache) resultKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, CacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); key != StatsHitsKey && key != StatsMissesKey {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return keys, nil
}

func (c *Cache) incrementHits(ctx context.Context) {
	c.client.Incr(ctx, StatsHitsKey)
}

func (c *Cache) incrementMisses(ctx context.Context) {
	c.client.Incr(ctx, StatsMissesKey)
}

// parseInfoField extracts a field value from Redis INFO output
func parseInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if v, ok := strings.CutPrefix(line, field+":"); ok {
			return v
		}
	}
	return ""
}
