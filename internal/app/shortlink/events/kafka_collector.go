package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{}, // 同一条记录的 created/evicted 落到同一分区，保证顺序
			Async:    true,          // 异步发送
		},
	}
}

func (k *KafkaCollector) Collect(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("kafka marshal failed", "err", err)
		return
	}
	err = k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.ID),
		Value: data,
	})
	if err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

// Close 会等待异步写入完成
func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}
