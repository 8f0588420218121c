package events

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// 领域事件类型。
const (
	StudentsLoaded = "students_loaded"
	ArticlesLoaded = "articles_loaded"
	ModelTrained   = "model_trained"
	IndexRebuilt   = "index_rebuilt"
)

// Publisher 发布领域事件。
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
	Close() error
}

// messageWriter 是 kafka.Writer 中用到的部分，便于测试替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 把事件序列化为 JSON 写入 Kafka，事件类型作为消息键。
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher 使用已配置好主题的 writer 创建发布器。
func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	event := models.DomainEvent{
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(eventType), Value: data}); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop 在未配置 Kafka 时丢弃所有事件。
type Noop struct{}

func (Noop) Publish(context.Context, string, map[string]interface{}) error { return nil }

func (Noop) Close() error { return nil }
