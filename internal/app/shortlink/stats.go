package shortlink

import (
	"context"
	"fmt"

	"shortlink.local/internal/app/shortlink/cache"
	"shortlink.local/internal/app/shortlink/client"
)

// StatsFetcher 是服务端的统计查询能力。
type StatsFetcher interface {
	Stats(ctx context.Context, code string) (client.Stats, error)
}

// StatsLookup 查询一条历史记录在服务端的访问统计，结果在本地缓存一小段时间。
type StatsLookup struct {
	svc   StatsFetcher
	cache *cache.StatsCache // 可为 nil
}

func NewStatsLookup(svc StatsFetcher, c *cache.StatsCache) *StatsLookup {
	return &StatsLookup{svc: svc, cache: c}
}

func (l *StatsLookup) Lookup(ctx context.Context, r LinkRecord) (client.Stats, error) {
	code, err := CodeFromShortURL(r.ShortURL)
	if err != nil {
		return client.Stats{}, err
	}
	if l.cache != nil {
		if st, ok := l.cache.Get(code); ok {
			return st, nil
		}
	}
	st, err := l.svc.Stats(ctx, code)
	if err != nil {
		return client.Stats{}, fmt.Errorf("stats %s: %w", code, err)
	}
	if l.cache != nil {
		l.cache.Set(code, st)
	}
	return st, nil
}
