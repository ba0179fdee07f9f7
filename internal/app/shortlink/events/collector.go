package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindCreated Kind = "created"
	KindEvicted Kind = "evicted"
)

// 历史记录变更事件
type Event struct {
	Kind        Kind       `json:"kind"`
	ID          string     `json:"id"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // nil 表示永久
	At          time.Time  `json:"at"`
}

// Collector 收集器接口（Channel / Kafka 两种实现）
type Collector interface {
	Collect(event Event)
	Close()
}

// ChannelCollector 基于 channel 的收集器
type ChannelCollector struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan Event, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
	}
}

func (c *ChannelCollector) Events() <-chan Event {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Discard 什么都不做，用于不关心事件的场景。
type Discard struct{}

func (Discard) Collect(Event) {}
func (Discard) Close()        {}
