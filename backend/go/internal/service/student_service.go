package service

import (
	"MindGraphDB/backend/go/internal/artifact"
	"MindGraphDB/backend/go/internal/audit"
	"MindGraphDB/backend/go/internal/cache"
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/internal/events"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// 统计缓存键。
const (
	overviewKey     = "overview"
	byCityKey       = "by_city"
	byProfessionKey = "by_profession"
)

// StudentRepository 是 StudentService 需要的学生数据访问接口。
type StudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter, skip, limit int) ([]models.Student, error)
	Get(ctx context.Context, id uint) (*models.Student, error)
	All(ctx context.Context) ([]models.Student, error)
	Overview(ctx context.Context) (*models.Overview, error)
	StatsBy(ctx context.Context, field string) ([]models.GroupStat, error)
}

// TrainingRunRepository 保存训练记录。
type TrainingRunRepository interface {
	Create(ctx context.Context, run *models.TrainingRun) error
	Latest(ctx context.Context) (*models.TrainingRun, error)
}

// StudentDeps 汇总 StudentService 的依赖，可选依赖为空时使用空实现。
type StudentDeps struct {
	Students   StudentRepository
	Runs       TrainingRunRepository
	Classifier *classifier.Classifier
	Artifacts  artifact.Store
	Cache      cache.StatsCache
	Audit      audit.Recorder
	Events     events.Publisher
	Log        *logger.Logger
}

// StudentService 封装学生查询、统计、预测和训练的业务逻辑。
type StudentService struct {
	students   StudentRepository
	runs       TrainingRunRepository
	classifier *classifier.Classifier
	artifacts  artifact.Store
	cache      cache.StatsCache
	audit      audit.Recorder
	events     events.Publisher
	log        *logger.Logger
}

// TrainOutcome 是一次训练的评估结果及其持久化位置。
type TrainOutcome struct {
	classifier.TrainResult
	RunID        uint   `json:"run_id"`
	ArtifactPath string `json:"artifact_path"`
}

// NewStudentService 创建 StudentService。
func NewStudentService(deps StudentDeps) *StudentService {
	s := &StudentService{
		students:   deps.Students,
		runs:       deps.Runs,
		classifier: deps.Classifier,
		artifacts:  deps.Artifacts,
		cache:      deps.Cache,
		audit:      deps.Audit,
		events:     deps.Events,
		log:        orDiscard(deps.Log),
	}
	if s.classifier == nil {
		s.classifier = classifier.New(classifier.Options{}, s.log)
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.audit == nil {
		s.audit = audit.Noop{}
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	return s
}

func (s *StudentService) List(ctx context.Context, filter models.StudentFilter, skip, limit int) ([]models.Student, error) {
	return s.students.List(ctx, filter, skip, limit)
}

func (s *StudentService) Get(ctx context.Context, id uint) (*models.Student, error) {
	return s.students.Get(ctx, id)
}

// Overview 返回总体统计，优先读取缓存。
func (s *StudentService) Overview(ctx context.Context) (*models.Overview, error) {
	var cached models.Overview
	if s.cachedInto(ctx, overviewKey, &cached) {
		return &cached, nil
	}
	overview, err := s.students.Overview(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, overviewKey, overview)
	return overview, nil
}

// StatsByCity 返回按城市分组的抑郁统计。
func (s *StudentService) StatsByCity(ctx context.Context) ([]models.GroupStat, error) {
	return s.statsBy(ctx, "city", byCityKey)
}

// StatsByProfession 返回按职业分组的抑郁统计。
func (s *StudentService) StatsByProfession(ctx context.Context) ([]models.GroupStat, error) {
	return s.statsBy(ctx, "profession", byProfessionKey)
}

func (s *StudentService) statsBy(ctx context.Context, field, key string) ([]models.GroupStat, error) {
	var cached []models.GroupStat
	if s.cachedInto(ctx, key, &cached) {
		return cached, nil
	}
	stats, err := s.students.StatsBy(ctx, field)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, stats)
	return stats, nil
}

// cachedInto 读取缓存。Redis 出错时视为未命中，回落到数据库。
func (s *StudentService) cachedInto(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Stats cache read failed")
		return false
	}
	return hit
}

func (s *StudentService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Stats cache write failed")
	}
}

// InvalidateStats 清空统计缓存，在导入学生数据后调用。
func (s *StudentService) InvalidateStats(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// LoadModel 从模型存储加载模型。没有模型文件时返回 artifact.ErrNoArtifact。
func (s *StudentService) LoadModel(ctx context.Context) error {
	if s.artifacts == nil {
		return artifact.ErrNoArtifact
	}
	model, err := s.artifacts.Load(ctx)
	if err != nil {
		return err
	}
	s.classifier.Use(model)
	s.log.WithPayload(map[string]interface{}{"trained_at": model.TrainedAt}).Info("Depression model loaded")
	return nil
}

// ModelReady 报告当前是否可以预测。
func (s *StudentService) ModelReady() bool {
	return s.classifier.Trained()
}

// Predict 预测一条问卷记录是否抑郁。还没有模型时先尝试加载模型文件。
func (s *StudentService) Predict(ctx context.Context, record classifier.Record) (*classifier.Prediction, error) {
	if !s.classifier.Trained() {
		if err := s.LoadModel(ctx); err != nil && !errors.Is(err, artifact.ErrNoArtifact) {
			s.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to load depression model")
		}
	}

	prediction, err := s.classifier.Predict(record)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, record, prediction.Prediction,
		prediction.Probability.NoDepression, prediction.Probability.Depression); err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to record prediction audit")
	}
	return prediction, nil
}

// Train 用全部学生记录训练模型，保存模型文件和训练记录并发布事件。
func (s *StudentService) Train(ctx context.Context) (*TrainOutcome, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取训练数据失败: %w", err)
	}
	records := make([]classifier.Record, len(students))
	for i, st := range students {
		records[i] = RecordFromStudent(st)
	}

	result, err := s.classifier.Train(records)
	if err != nil {
		return nil, err
	}
	outcome := &TrainOutcome{TrainResult: *result}

	if s.artifacts != nil {
		location, err := s.artifacts.Save(ctx, s.classifier.Model())
		if err != nil {
			return nil, fmt.Errorf("保存模型失败: %w", err)
		}
		outcome.ArtifactPath = location
	}

	if s.runs != nil {
		report, err := json.Marshal(result.Report)
		if err != nil {
			return nil, fmt.Errorf("序列化评估报告失败: %w", err)
		}
		run := &models.TrainingRun{
			Accuracy:     result.Accuracy,
			TrainSize:    result.TrainSize,
			TestSize:     result.TestSize,
			Report:       datatypes.JSON(report),
			ArtifactPath: outcome.ArtifactPath,
		}
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, err
		}
		outcome.RunID = run.ID
	}

	publish(ctx, s.events, s.log, events.ModelTrained, map[string]interface{}{
		"accuracy":   result.Accuracy,
		"train_size": result.TrainSize,
		"test_size":  result.TestSize,
		"artifact":   outcome.ArtifactPath,
	})
	return outcome, nil
}

// LatestRun 返回最近一次训练记录。
func (s *StudentService) LatestRun(ctx context.Context) (*models.TrainingRun, error) {
	if s.runs == nil {
		return nil, ErrNotFound
	}
	return s.runs.Latest(ctx)
}

// RecordFromStudent 把学生表记录转换为分类器输入。
func RecordFromStudent(st models.Student) classifier.Record {
	return classifier.Record{
		Gender:            st.Gender,
		Age:               st.Age,
		AcademicPressure:  st.AcademicPressure,
		WorkPressure:      st.WorkPressure,
		CGPA:              st.CGPA,
		StudySatisfaction: st.StudySatisfaction,
		JobSatisfaction:   st.JobSatisfaction,
		SleepDuration:     st.SleepDuration,
		DietaryHabits:     st.DietaryHabits,
		SuicidalThoughts:  st.SuicidalThoughts,
		WorkStudyHours:    st.WorkStudyHours,
		FinancialStress:   st.FinancialStress,
		FamilyHistory:     st.FamilyHistory,
		Depression:        st.Depression,
	}
}
