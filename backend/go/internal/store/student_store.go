package store

import (
	"MindGraphDB/backend/go/internal/models"
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentStore 封装了 students 表的读写操作。
type StudentStore struct {
	DB *gorm.DB
}

// NewStudentStore 创建一个新的 StudentStore 实例。
func NewStudentStore(db *gorm.DB) *StudentStore {
	return &StudentStore{DB: db}
}

// List 按主键顺序分页返回满足过滤条件的学生。
func (s *StudentStore) List(ctx context.Context, filter models.StudentFilter, skip, limit int) ([]models.Student, error) {
	query := s.model(ctx)
	if filter.Depression != nil {
		query = query.Where("depression = ?", *filter.Depression)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}

	students := make([]models.Student, 0)
	if err := query.Order("id").Offset(skip).Limit(limit).Find(&students).Error; err != nil {
		return nil, fmt.Errorf("查询学生列表失败: %w", err)
	}
	return students, nil
}

// Get 按 ID 查找学生，不存在时返回 ErrNotFound。
func (s *StudentStore) Get(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.DB.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &student, nil
}

// All 返回全部学生，用于模型训练。
func (s *StudentStore) All(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := s.DB.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("读取全部学生失败: %w", err)
	}
	return students, nil
}

// Overview 计算总体统计，比例以百分比表示并保留两位小数。
func (s *StudentStore) Overview(ctx context.Context) (*models.Overview, error) {
	var total, depressed, suicidal int64
	if err := s.model(ctx).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计学生总数失败: %w", err)
	}
	if err := s.model(ctx).Where("depression = ?", 1).Count(&depressed).Error; err != nil {
		return nil, fmt.Errorf("统计抑郁人数失败: %w", err)
	}
	if err := s.model(ctx).Where("suicidal_thoughts = ?", "Yes").Count(&suicidal).Error; err != nil {
		return nil, fmt.Errorf("统计自杀念头人数失败: %w", err)
	}

	var avg struct {
		AvgCGPA *float64 `gorm:"column:avg_cgpa"`
		AvgAge  *float64 `gorm:"column:avg_age"`
	}
	if err := s.model(ctx).Select("AVG(cgpa) AS avg_cgpa, AVG(age) AS avg_age").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("计算平均值失败: %w", err)
	}

	overview := &models.Overview{
		TotalStudents:         total,
		DepressedCount:        depressed,
		DepressionRate:        percent(depressed, total),
		SuicidalThoughtsCount: suicidal,
		SuicidalRate:          percent(suicidal, total),
	}
	if avg.AvgCGPA != nil {
		overview.AvgCGPA = round2(*avg.AvgCGPA)
	}
	if avg.AvgAge != nil {
		overview.AvgAge = round2(*avg.AvgAge)
	}
	return overview, nil
}

func (s *StudentStore) model(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.Student{})
}

// groupableFields 是允许分组统计的列。
var groupableFields = map[string]bool{"city": true, "profession": true}

// StatsBy 按 city 或 profession 分组统计抑郁率，空分组被跳过，结果按抑郁率降序排列。
func (s *StudentStore) StatsBy(ctx context.Context, field string) ([]models.GroupStat, error) {
	if !groupableFields[field] {
		return nil, fmt.Errorf("不支持按 %q 分组", field)
	}

	var rows []struct {
		Grp       *string `gorm:"column:grp"`
		Total     int64   `gorm:"column:total"`
		Depressed *int64  `gorm:"column:depressed"`
	}
	err := s.model(ctx).
		Select(fmt.Sprintf("%s AS grp, COUNT(id) AS total, SUM(depression) AS depressed", field)).
		Group(field).
		Order(field).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("按 %s 分组统计失败: %w", field, err)
	}

	stats := make([]models.GroupStat, 0, len(rows))
	for _, row := range rows {
		if row.Grp == nil || *row.Grp == "" {
			continue
		}
		var depressed int64
		if row.Depressed != nil {
			depressed = *row.Depressed
		}
		stats = append(stats, models.GroupStat{
			Field:     field,
			Group:     *row.Grp,
			Total:     row.Total,
			Depressed: depressed,
			Rate:      percent(depressed, row.Total),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Rate > stats[j].Rate
	})
	return stats, nil
}

// UpsertBatch 在一个事务中插入或覆盖一批学生，任一失败则全部回滚。
func (s *StudentStore) UpsertBatch(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(students, 500).Error
		if err != nil {
			return fmt.Errorf("写入学生数据失败: %w", err)
		}
		return nil
	})
}
