package service

import (
	"MindGraphDB/backend/go/internal/artifact"
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/internal/graph"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/search"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

type fakeStudentRepo struct {
	students      []models.Student
	overviewCalls int
	statsCalls    map[string]int
	err           error
}

func (f *fakeStudentRepo) List(_ context.Context, _ models.StudentFilter, skip, limit int) ([]models.Student, error) {
	if skip >= len(f.students) {
		return []models.Student{}, nil
	}
	end := skip + limit
	if end > len(f.students) {
		end = len(f.students)
	}
	return f.students[skip:end], nil
}

func (f *fakeStudentRepo) Get(_ context.Context, id uint) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].ID == id {
			return &f.students[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStudentRepo) All(context.Context) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.students, nil
}

func (f *fakeStudentRepo) Overview(context.Context) (*models.Overview, error) {
	f.overviewCalls++
	return &models.Overview{TotalStudents: int64(len(f.students)), DepressionRate: 50}, nil
}

func (f *fakeStudentRepo) StatsBy(_ context.Context, field string) ([]models.GroupStat, error) {
	if f.statsCalls == nil {
		f.statsCalls = map[string]int{}
	}
	f.statsCalls[field]++
	return []models.GroupStat{{Field: field, Group: "Pune", Total: 2, Depressed: 1, Rate: 50}}, nil
}

type fakeRuns struct {
	runs []models.TrainingRun
}

func (f *fakeRuns) Create(_ context.Context, run *models.TrainingRun) error {
	run.ID = uint(len(f.runs) + 1)
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRuns) Latest(context.Context) (*models.TrainingRun, error) {
	if len(f.runs) == 0 {
		return nil, ErrNotFound
	}
	run := f.runs[len(f.runs)-1]
	return &run, nil
}

// mapCache 在内存中按 JSON 保存缓存值，行为与 Redis 缓存一致。
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("redis: connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	return nil
}

type fakeAudit struct {
	predictions []int
}

func (f *fakeAudit) Record(_ context.Context, _ interface{}, prediction int, _, _ float64) error {
	f.predictions = append(f.predictions, prediction)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// labelledStudents 生成可分的学生数据：高学业压力且有自杀念头的学生抑郁。
func labelledStudents(n int) []models.Student {
	students := make([]models.Student, n)
	for i := range students {
		depressed := i%2 == 0
		s := models.Student{
			ID:                uint(i + 1),
			Gender:            str("Male"),
			Age:               num(20 + float64(i%5)),
			AcademicPressure:  num(1),
			WorkPressure:      num(0),
			CGPA:              num(8),
			StudySatisfaction: num(4),
			JobSatisfaction:   num(0),
			SleepDuration:     str("7-8 hours"),
			DietaryHabits:     str("Healthy"),
			SuicidalThoughts:  str("No"),
			WorkStudyHours:    num(4),
			FinancialStress:   num(1),
			FamilyHistory:     str("No"),
		}
		if depressed {
			s.AcademicPressure = num(5)
			s.FinancialStress = num(5)
			s.SuicidalThoughts = str("Yes")
			s.SleepDuration = str("Less than 5 hours")
			s.Depression = 1
		}
		students[i] = s
	}
	return students
}

func TestStudentService_OverviewIsCached(t *testing.T) {
	repo := &fakeStudentRepo{students: labelledStudents(4)}
	svc := NewStudentService(StudentDeps{Students: repo, Cache: &mapCache{}})
	ctx := context.Background()

	first, err := svc.Overview(ctx)
	require.NoError(t, err)
	second, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.overviewCalls)

	require.NoError(t, svc.InvalidateStats(ctx))
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.overviewCalls)
}

func TestStudentService_StatsCacheKeepsGroupField(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(StudentDeps{Students: repo, Cache: &mapCache{}})
	ctx := context.Background()

	_, err := svc.StatsByCity(ctx)
	require.NoError(t, err)
	cached, err := svc.StatsByCity(ctx)
	require.NoError(t, err)
	byProfession, err := svc.StatsByProfession(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.statsCalls["city"])
	assert.Equal(t, 1, repo.statsCalls["profession"])
	require.Len(t, cached, 1)
	assert.Equal(t, "city", cached[0].Field)
	assert.Equal(t, "Pune", cached[0].Group)
	assert.Equal(t, "profession", byProfession[0].Field)
}

func TestStudentService_CacheFailureFallsThrough(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(StudentDeps{Students: repo, Cache: &mapCache{failGet: true}})

	for i := 0; i < 2; i++ {
		_, err := svc.Overview(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.overviewCalls)
}

func TestStudentService_PredictWithoutModel(t *testing.T) {
	svc := NewStudentService(StudentDeps{
		Students:  &fakeStudentRepo{},
		Artifacts: artifact.NewFileStore(filepath.Join(t.TempDir(), "missing.json")),
	})

	_, err := svc.Predict(context.Background(), classifier.Record{})
	assert.ErrorIs(t, err, classifier.ErrModelNotTrained)
	assert.False(t, svc.ModelReady())
}

func TestStudentService_TrainPersistsAndPredicts(t *testing.T) {
	repo := &fakeStudentRepo{students: labelledStudents(30)}
	runs := &fakeRuns{}
	auditLog := &fakeAudit{}
	pub := &fakePublisher{}
	modelPath := filepath.Join(t.TempDir(), "model.json")

	svc := NewStudentService(StudentDeps{
		Students:   repo,
		Runs:       runs,
		Classifier: classifier.New(classifier.Options{}, nil),
		Artifacts:  artifact.NewFileStore(modelPath),
		Audit:      auditLog,
		Events:     pub,
	})
	ctx := context.Background()

	outcome, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, outcome.TestSize)
	assert.Equal(t, 24, outcome.TrainSize)
	assert.Equal(t, 1.0, outcome.Accuracy)
	assert.Equal(t, modelPath, outcome.ArtifactPath)
	assert.Equal(t, uint(1), outcome.RunID)
	assert.Equal(t, []string{"model_trained"}, pub.events)

	latest, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, modelPath, latest.ArtifactPath)
	var report map[string]classifier.ClassMetrics
	require.NoError(t, json.Unmarshal(latest.Report, &report))
	assert.Contains(t, report, "macro avg")

	depressed := RecordFromStudent(repo.students[0])
	prediction, err := svc.Predict(ctx, depressed)
	require.NoError(t, err)
	assert.Equal(t, 1, prediction.Prediction)
	assert.InDelta(t, 1.0, prediction.Probability.NoDepression+prediction.Probability.Depression, 1e-9)
	assert.Equal(t, []int{1}, auditLog.predictions)

	// 新实例从模型文件懒加载后给出同样的结果。
	fresh := NewStudentService(StudentDeps{Students: repo, Artifacts: artifact.NewFileStore(modelPath)})
	again, err := fresh.Predict(ctx, depressed)
	require.NoError(t, err)
	assert.Equal(t, prediction, again)
}

func TestStudentService_TrainErrors(t *testing.T) {
	svc := NewStudentService(StudentDeps{Students: &fakeStudentRepo{err: errors.New("db down")}})
	_, err := svc.Train(context.Background())
	assert.Error(t, err)

	svc = NewStudentService(StudentDeps{Students: &fakeStudentRepo{students: labelledStudents(1)}})
	_, err = svc.Train(context.Background())
	assert.ErrorIs(t, err, classifier.ErrNotEnoughData)
}

func TestStudentService_LatestRunWithoutRepository(t *testing.T) {
	svc := NewStudentService(StudentDeps{Students: &fakeStudentRepo{}})
	_, err := svc.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeArticleRepo struct {
	articles []models.Article
}

func (f *fakeArticleRepo) List(_ context.Context, skip, limit int) ([]models.Article, error) {
	return f.articles, nil
}

func (f *fakeArticleRepo) Get(_ context.Context, id uint) (*models.Article, error) {
	for i := range f.articles {
		if f.articles[i].ID == id {
			return &f.articles[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeArticleRepo) All(context.Context) ([]models.Article, error) {
	return f.articles, nil
}

func newArticleService(t *testing.T, repo ArticleRepository, pub *fakePublisher) *ArticleService {
	t.Helper()
	tokenizer, err := search.NewTokenizer()
	require.NoError(t, err)
	svc, err := NewArticleService(repo, tokenizer, search.Options{}, pub, nil)
	require.NoError(t, err)
	return svc
}

func TestArticleService_SearchAutoFitsFromRepository(t *testing.T) {
	repo := &fakeArticleRepo{articles: []models.Article{
		{ID: 1, Title: str("sleep and stress"), Abstract: str("sleep duration affects stress")},
		{ID: 2, Title: str("diet habits"), Abstract: str("dietary habits and mood")},
	}}
	svc := newArticleService(t, repo, &fakePublisher{})

	assert.Equal(t, search.StateUnfitted, svc.IndexStatus().State)
	results, err := svc.Search(context.Background(), "sleep stress", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(1), results[0].ID)
	assert.Equal(t, search.StateFitted, svc.IndexStatus().State)
}

func TestArticleService_Rebuild(t *testing.T) {
	repo := &fakeArticleRepo{}
	pub := &fakePublisher{}
	svc := newArticleService(t, repo, pub)
	ctx := context.Background()

	result, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.False(t, result.Fitted)
	assert.Empty(t, pub.events)

	repo.articles = []models.Article{{ID: 3, Title: str("mood disorders")}}
	result, err = svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.True(t, result.Fitted)
	assert.Equal(t, 1, result.Status.Documents)
	assert.Equal(t, []string{"index_rebuilt"}, pub.events)
}

func TestDocumentFromArticle(t *testing.T) {
	year := 2021
	doc := DocumentFromArticle(models.Article{ID: 4, Title: str("t"), Authors: str("a"), PublicationYear: &year})
	assert.Equal(t, search.Document{ID: 4, Title: "t", Authors: "a", Year: &year}, doc)
	assert.Equal(t, "t  ", doc.Text())
}

type fakeGraph struct {
	edges []models.GraphEdge
}

func (f *fakeGraph) HealthCheck(context.Context) error { return nil }

func (f *fakeGraph) StudentNetwork(_ context.Context, id int64) ([]models.GraphEdge, error) {
	if id != 1 {
		return nil, graph.ErrStudentNotFound
	}
	return f.edges, nil
}

func (f *fakeGraph) Network(context.Context, int) ([]models.GraphEdge, error) { return f.edges, nil }

func (f *fakeGraph) DepressedByCity(context.Context) ([]models.CityCount, error) { return nil, nil }

func (f *fakeGraph) DepressionByCity(context.Context) ([]models.GraphStat, error) { return nil, nil }

func (f *fakeGraph) DepressionByProfession(context.Context) ([]models.GraphStat, error) {
	return nil, nil
}

func (f *fakeGraph) PageRank(context.Context, int) ([]models.RankedStudent, error) { return nil, nil }

func (f *fakeGraph) Communities(context.Context) ([]models.Community, error) {
	return nil, fmt.Errorf("gds not installed")
}

func TestGraphService(t *testing.T) {
	ctx := context.Background()
	svc := NewGraphService(&fakeGraph{edges: []models.GraphEdge{{Relationship: "LIVES_IN"}}})

	edges, err := svc.StudentNetwork(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	_, err = svc.StudentNetwork(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Communities(ctx)
	assert.Error(t, err)

	disabled := NewGraphService(nil)
	_, err = disabled.Network(ctx, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, disabled.HealthCheck(ctx), ErrUnavailable)
}
