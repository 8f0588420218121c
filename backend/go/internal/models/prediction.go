package models

import "time"

// PredictionAudit 是一次预测请求及其结果的审计记录，保存在 MongoDB 中。
type PredictionAudit struct {
	ID          string      `bson:"_id"`
	SubmittedAt time.Time   `bson:"submitted_at"`
	Input       interface{} `bson:"input"`
	Prediction  int         `bson:"prediction"`
	NoDepress   float64     `bson:"no_depression"`
	Depression  float64     `bson:"depression"`
}

// DomainEvent 是发布到 Kafka 的领域事件。
type DomainEvent struct {
	Type       string                 `json:"type"` // 例如 "students_loaded", "model_trained"
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}
