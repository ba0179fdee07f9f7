package events

import (
	"context"
	"log/slog"
	"time"
)

// Sink 处理一批事件。返回错误只记日志，不会重试。
type Sink func(ctx context.Context, batch []Event) error

// LogSink 把事件写到 slog。
func LogSink(ctx context.Context, batch []Event) error {
	for _, e := range batch {
		slog.InfoContext(ctx, "history event",
			"kind", e.Kind,
			"id", e.ID,
			"short_url", e.ShortURL,
			"at", e.At)
	}
	return nil
}

// 消费历史事件
type Consumer struct {
	collector *ChannelCollector
	sink      Sink
	batchSize int
	interval  time.Duration
}

func NewConsumer(collector *ChannelCollector, sink Sink) *Consumer {
	if sink == nil {
		sink = LogSink
	}
	return &Consumer{
		collector: collector,
		sink:      sink,
		batchSize: 50,
		interval:  time.Second,
	}
}

// 阻塞 消费循环；collector 关闭或 ctx 结束时把剩余事件刷出去再返回。
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]Event, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(batch)
			return
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

// drain 在 ctx 结束后把通道里已有的事件一并带走，不再等待新事件。
func (c *Consumer) drain(batch []Event) {
	for {
		select {
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
		default:
			c.flush(batch)
			return
		}
	}
}

func (c *Consumer) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.sink(ctx, batch); err != nil {
		slog.Error("history events: flush failed", "err", err, "count", len(batch))
		return
	}
	slog.Debug("history events: flushed", "count", len(batch))
}
