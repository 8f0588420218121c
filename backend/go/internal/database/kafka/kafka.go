package kafka

import (
	"MindGraphDB/backend/go/internal/config"
	"MindGraphDB/backend/go/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	writer  *kafka.Writer
	once    sync.Once
	initErr error
)

// GetWriter 使用单例模式初始化领域事件主题的 writer，首次调用时会在主题不存在时创建它。
// brokers 为空时返回 (nil, nil)，表示不发布事件。
func GetWriter(cfg *config.KafkaConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	once.Do(func() {
		if err := ensureTopic(cfg); err != nil {
			initErr = err
			return
		}

		writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           10 * time.Millisecond,
			BatchSize:              100,
			AllowAutoTopicCreation: true,
		}
		logger.New("kafka", "", "").WithPayload(map[string]interface{}{
			"brokers": cfg.Brokers,
			"topic":   cfg.Topic,
		}).Info("Kafka writer initialized")
	})
	return writer, initErr
}

func ensureTopic(cfg *config.KafkaConfig) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			return nil
		}
	}

	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
	}
	return nil
}
