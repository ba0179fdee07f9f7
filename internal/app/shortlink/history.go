package shortlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"shortlink.local/internal/app/shortlink/slot"
	"shortlink.local/internal/platform/metrics"
)

// HistoryCapacity 是历史记录条数上限。
const HistoryCapacity = 5

// HistoryStore 是有界、按插入顺序从新到旧排列、持久化的历史记录。
//
// 约定：
// - Load 只在启动时调用一次；存储不存在或内容损坏都按空历史处理，不向上抛错
// - Insert 放到最前面、截断到容量、再把整份序列写回存储（整体替换，不是追加日志）
// - Insert 之间互斥：一次 Insert（含持久化）完成后，下一次才能看到存储
type HistoryStore struct {
	mu       sync.Mutex
	slot     slot.Slot
	capacity int
	records  []LinkRecord
	onEvict  func(LinkRecord)
}

func NewHistoryStore(s slot.Slot) *HistoryStore {
	return &HistoryStore{
		slot:     s,
		capacity: HistoryCapacity,
	}
}

// OnEvict 注册淘汰回调，回调在持有锁时执行，不要在里面访问 HistoryStore。
func (h *HistoryStore) OnEvict(fn func(LinkRecord)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEvict = fn
}

// Load 从存储恢复历史并返回一份拷贝。
func (h *HistoryStore) Load(ctx context.Context) []LinkRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
	data, err := h.slot.Load(ctx)
	switch {
	case errors.Is(err, slot.ErrNotFound):
		slog.DebugContext(ctx, "history slot empty")
	case err != nil:
		slog.WarnContext(ctx, "history slot unreadable, starting empty", "err", err)
	default:
		records, err := decodeHistory(data, h.capacity)
		if err != nil {
			metrics.HistoryCorrupt.Inc()
			slog.WarnContext(ctx, "history data corrupt, starting empty", "err", err)
		} else {
			h.records = records
		}
	}
	metrics.HistorySize.Set(float64(len(h.records)))
	return h.snapshot()
}

// Insert 把 r 放到最前面，截断到容量，然后整体持久化。
// 持久化失败时内存里的历史已经更新，错误返回给调用方。
func (h *HistoryStore) Insert(ctx context.Context, r LinkRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]LinkRecord, 0, h.capacity+1)
	next = append(next, r)
	for _, old := range h.records {
		if old.ID == r.ID {
			continue
		}
		next = append(next, old)
	}

	var evicted []LinkRecord
	if len(next) > h.capacity {
		evicted = append(evicted, next[h.capacity:]...)
		next = next[:h.capacity]
	}
	h.records = next

	metrics.HistorySize.Set(float64(len(h.records)))
	if len(evicted) > 0 {
		metrics.HistoryEvictions.Add(float64(len(evicted)))
		if h.onEvict != nil {
			for _, e := range evicted {
				h.onEvict(e)
			}
		}
	}

	data, err := json.Marshal(h.records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.slot.Save(ctx, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Records 返回当前历史的拷贝，从新到旧。
func (h *HistoryStore) Records() []LinkRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

// Get 按 1 开始的序号取记录（与列表展示一致）。
func (h *HistoryStore) Get(n int) (LinkRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 1 || n > len(h.records) {
		return LinkRecord{}, false
	}
	return h.records[n-1], true
}

func (h *HistoryStore) snapshot() []LinkRecord {
	out := make([]LinkRecord, len(h.records))
	copy(out, h.records)
	return out
}

// decodeHistory 解析存储内容。重复 ID 保留先出现的那条，超出容量的部分丢弃。
func decodeHistory(data []byte, capacity int) ([]LinkRecord, error) {
	var raw []LinkRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]LinkRecord, 0, len(raw))
	for _, r := range raw {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
		if len(out) == capacity {
			break
		}
	}
	return out, nil
}
