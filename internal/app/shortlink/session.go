package shortlink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shortlink.local/internal/app/shortlink/events"
)

// Session 串起一次用户操作：创建短链，然后写入历史。
type Session struct {
	orch      *Orchestrator
	history   *HistoryStore
	collector events.Collector
	now       func() time.Time
}

func NewSession(orch *Orchestrator, history *HistoryStore, collector events.Collector) *Session {
	if collector == nil {
		collector = events.Discard{}
	}
	s := &Session{
		orch:      orch,
		history:   history,
		collector: collector,
		now:       orch.now,
	}
	history.OnEvict(func(r LinkRecord) {
		s.collector.Collect(toEvent(events.KindEvicted, r, s.now()))
	})
	return s
}

func (s *Session) History() *HistoryStore { return s.history }

// Shorten 创建短链并写入历史。
//
// ctx 在请求返回前被取消（调用方放弃了这次操作）时，不会写历史，返回 ctx.Err()。
// 多个 Shorten 并发时，写历史的顺序是完成顺序，不一定是发起顺序。
//
// 写历史失败不影响短链本身：返回记录和错误，调用方可以照常展示短链。
func (s *Session) Shorten(ctx context.Context, rawURL, choice string) (LinkRecord, error) {
	// 历史可能来自上一个进程，新 ID 必须排在这些 ID 之后
	for _, r := range s.history.Records() {
		s.orch.ids.Observe(r.ID)
	}

	rec, err := s.orch.CreateShortLink(ctx, rawURL, choice)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return LinkRecord{}, ctxErr
		}
		return LinkRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		slog.DebugContext(ctx, "shorten abandoned, history untouched", "short_url", rec.ShortURL)
		return LinkRecord{}, err
	}

	s.collector.Collect(toEvent(events.KindCreated, rec, s.now()))
	// 写历史不跟随调用方的取消：请求已经成功，记录要落下来
	if err := s.history.Insert(context.WithoutCancel(ctx), rec); err != nil {
		return rec, fmt.Errorf("short link created but history not saved: %w", err)
	}
	return rec, nil
}

func toEvent(kind events.Kind, r LinkRecord, at time.Time) events.Event {
	e := events.Event{
		Kind:        kind,
		ID:          r.ID,
		ShortURL:    r.ShortURL,
		OriginalURL: r.OriginalURL,
		At:          at.UTC(),
	}
	if until, ok := r.ExpiresAt(); ok {
		e.ExpiresAt = &until
	}
	return e
}
