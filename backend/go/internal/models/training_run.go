package models

import (
	"time"

	"gorm.io/datatypes"
)

// TrainingRun 记录一次模型训练的评估结果。
type TrainingRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Accuracy     float64        `json:"accuracy"`
	TrainSize    int            `json:"train_size"`
	TestSize     int            `json:"test_size"`
	Report       datatypes.JSON `json:"report"`
	ArtifactPath string         `gorm:"size:512" json:"artifact_path"`
}

func (TrainingRun) TableName() string {
	return "training_runs"
}
