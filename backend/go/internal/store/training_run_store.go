package store

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TrainingRunStore 记录每次模型训练的评估结果。
type TrainingRunStore struct {
	DB *gorm.DB
}

func NewTrainingRunStore(db *gorm.DB) *TrainingRunStore {
	return &TrainingRunStore{DB: db}
}

// Create 保存一次训练记录。
func (s *TrainingRunStore) Create(ctx context.Context, run *models.TrainingRun) error {
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存训练记录失败: %w", err)
	}
	return nil
}

// Latest 返回最近一次训练记录，没有时返回 ErrNotFound。
func (s *TrainingRunStore) Latest(ctx context.Context) (*models.TrainingRun, error) {
	var run models.TrainingRun
	if err := s.DB.WithContext(ctx).Order("id DESC").First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
