package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"shortlink.local/internal/app/shortlink/client"
	"shortlink.local/internal/platform/metrics"
)

// StatsCache 基于 ristretto 的本地统计缓存。
// history -watch 每秒刷新一次，TTL 内直接用缓存，避免每秒打一次服务端。
type StatsCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewStatsCache 创建本地缓存
// maxItems: 最大缓存条目数（历史只有 5 条，给几十就够）
func NewStatsCache(maxItems int64, ttl time.Duration) (*StatsCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxItems,
		BufferItems: 64,
		// 按条目计数，不把 ristretto 内部结构的开销算进 cost
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &StatsCache{
		cache: cache,
		ttl:   ttl,
	}, nil
}

func (s *StatsCache) Get(code string) (client.Stats, bool) {
	if v, ok := s.cache.Get(code); ok {
		metrics.CacheOperations.WithLabelValues("hit").Inc()
		return v.(client.Stats), true
	}
	metrics.CacheOperations.WithLabelValues("miss").Inc()
	return client.Stats{}, false
}

// Set 写入后等待缓冲区落地，保证紧接着的 Get 能读到。
func (s *StatsCache) Set(code string, st client.Stats) {
	// cost=1 表示按条目数限制
	s.cache.SetWithTTL(code, st, 1, s.ttl)
	s.cache.Wait()
}

func (s *StatsCache) Close() {
	s.cache.Close()
}
