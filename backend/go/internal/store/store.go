package store

import (
	"MindGraphDB/backend/go/internal/models"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"
)

// ErrNotFound 表示按主键查询的记录不存在。
var ErrNotFound = errors.New("record not found")

// AutoMigrate 创建或更新所有关系表。
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Student{}, &models.Article{}, &models.TrainingRun{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// round2 保留两位小数。
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent 返回 part/total 的百分比，total 为 0 时返回 0。
func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}
