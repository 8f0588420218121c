package api

import (
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/search"
	"MindGraphDB/backend/go/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeStudents struct {
	lastFilter models.StudentFilter
	lastSkip   int
	lastLimit  int
	predictErr error
	trainCalls int
}

func (f *fakeStudents) List(_ context.Context, filter models.StudentFilter, skip, limit int) ([]models.Student, error) {
	f.lastFilter, f.lastSkip, f.lastLimit = filter, skip, limit
	return []models.Student{{ID: 1}}, nil
}

func (f *fakeStudents) Get(_ context.Context, id uint) (*models.Student, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &models.Student{ID: 1}, nil
}

func (f *fakeStudents) Overview(context.Context) (*models.Overview, error) {
	return &models.Overview{TotalStudents: 5, DepressionRate: 60}, nil
}

func (f *fakeStudents) StatsByCity(context.Context) ([]models.GroupStat, error) {
	return []models.GroupStat{{Field: "city", Group: "Delhi", Total: 2, Depressed: 2, Rate: 100}}, nil
}

func (f *fakeStudents) StatsByProfession(context.Context) ([]models.GroupStat, error) {
	return []models.GroupStat{}, nil
}

func (f *fakeStudents) Predict(context.Context, classifier.Record) (*classifier.Prediction, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return &classifier.Prediction{Prediction: 1, Probability: classifier.Probability{NoDepression: 0.25, Depression: 0.75}}, nil
}

func (f *fakeStudents) Train(context.Context) (*service.TrainOutcome, error) {
	f.trainCalls++
	return &service.TrainOutcome{TrainResult: classifier.TrainResult{Accuracy: 0.9, TrainSize: 8, TestSize: 2}, RunID: 1}, nil
}

func (f *fakeStudents) LatestRun(context.Context) (*models.TrainingRun, error) {
	return nil, service.ErrNotFound
}

func (f *fakeStudents) ModelReady() bool { return f.predictErr == nil }

type fakeArticles struct {
	lastQuery string
	lastLimit int
}

func (f *fakeArticles) List(context.Context, int, int) ([]models.Article, error) {
	return []models.Article{}, nil
}

func (f *fakeArticles) Get(_ context.Context, id uint) (*models.Article, error) {
	return nil, fmt.Errorf("article %d: %w", id, service.ErrNotFound)
}

func (f *fakeArticles) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	f.lastQuery, f.lastLimit = query, limit
	return []search.Result{{ID: 1, Title: "sleep and stress", Score: 0.5}}, nil
}

func (f *fakeArticles) Rebuild(context.Context) (*service.RebuildResult, error) {
	return &service.RebuildResult{Fitted: true, Status: search.Status{State: search.StateFitted, Documents: 3}}, nil
}

func (f *fakeArticles) IndexStatus() search.Status {
	return search.Status{State: search.StateUnfitted}
}

type fakeGraphs struct {
	err error
}

func (f *fakeGraphs) StudentNetwork(_ context.Context, id int64) ([]models.GraphEdge, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return []models.GraphEdge{{Relationship: "LIVES_IN"}}, nil
}

func (f *fakeGraphs) Network(context.Context, int) ([]models.GraphEdge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.GraphEdge{{Relationship: "LIVES_IN"}, {Relationship: "SUFFERS_FROM"}}, nil
}

func (f *fakeGraphs) DepressedByCity(context.Context) ([]models.CityCount, error) {
	return []models.CityCount{{City: "Delhi", DepressedCount: 2}}, nil
}

func (f *fakeGraphs) DepressionByCity(context.Context) ([]models.GraphStat, error) { return nil, f.err }

func (f *fakeGraphs) DepressionByProfession(context.Context) ([]models.GraphStat, error) {
	return nil, f.err
}

func (f *fakeGraphs) PageRank(context.Context, int) ([]models.RankedStudent, error) {
	return []models.RankedStudent{{StudentID: 1, Score: 0.3}}, nil
}

func (f *fakeGraphs) Communities(context.Context) ([]models.Community, error) {
	return nil, errors.New("gds procedure not found")
}

type testEnv struct {
	router   *gin.Engine
	students *fakeStudents
	articles *fakeArticles
	graphs   *fakeGraphs
}

func newTestEnv(checks ...NamedCheck) *testEnv {
	gin.SetMode(gin.TestMode)
	env := &testEnv{students: &fakeStudents{}, articles: &fakeArticles{}, graphs: &fakeGraphs{}}
	h := NewHandler(env.students, env.articles, env.graphs, AppInfo{Name: "MindGraphDB API", Version: "1.0.0"}, checks...)
	env.router = SetupRouter(h, RouterConfig{JwtSecret: testSecret, AllowedOrigins: []string{"http://localhost:3000"}})
	return env
}

func (e *testEnv) do(method, path string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := IssueToken(testSecret, "cli", time.Minute)
	require.NoError(t, err)
	return token
}

func TestRootAndTraceID(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "MindGraphDB API", body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = env.do(http.MethodGet, "/", nil, "X-Trace-ID", "abc")
	assert.Equal(t, "abc", w.Header().Get("X-Trace-ID"))
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	env := newTestEnv(NamedCheck{Name: "database", Check: ok}, NamedCheck{Name: "redis"})
	w := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "not configured", body["redis"])
	assert.Equal(t, true, body["model_trained"])
	assert.Equal(t, "unfitted", body["search_index"])

	env = newTestEnv(NamedCheck{Name: "neo4j", Check: down})
	w = env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body = decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disconnected", body["neo4j"])
}

func TestListStudents(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/v1/students", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.students.lastSkip)
	assert.Equal(t, 100, env.students.lastLimit)
	assert.Nil(t, env.students.lastFilter.Depression)

	w = env.do(http.MethodGet, "/api/v1/students?skip=10&limit=5&depression=1&city=Pune", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, env.students.lastSkip)
	assert.Equal(t, 5, env.students.lastLimit)
	require.NotNil(t, env.students.lastFilter.Depression)
	assert.Equal(t, 1, *env.students.lastFilter.Depression)
	assert.Equal(t, "Pune", env.students.lastFilter.City)

	for _, q := range []string{"depression=2", "limit=0", "skip=-1", "limit=abc"} {
		t.Run(q, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/v1/students?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestGetStudent(t *testing.T) {
	env := newTestEnv()

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/students/1", nil).Code)

	w := env.do(http.MethodGet, "/api/v1/students/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found", decode(t, w)["error"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/students/abc", nil).Code)
}

func TestStudentStats(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/v1/students/stats/overview", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 60.0, decode(t, w)["depression_rate"])

	w = env.do(http.MethodGet, "/api/v1/students/stats/by_city", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"city":"Delhi","total":2,"depressed":2,"rate":100}]`, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/students/stats/by_profession", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

var validPrediction = []byte(`{
	"gender": "Male", "age": 22, "academic_pressure": 5, "work_pressure": 0, "cgpa": 7.5,
	"study_satisfaction": 2, "job_satisfaction": 0, "sleep_duration": "Less than 5 hours",
	"dietary_habits": "Unhealthy", "suicidal_thoughts": "Yes", "work_study_hours": 10,
	"financial_stress": 5, "family_history": "No"
}`)

func TestPredict(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/v1/students/predict", validPrediction)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prediction":1,"probability":{"no_depression":0.25,"depression":0.75}}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/v1/students/predict", []byte(`{"gender":"Male"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/students/predict", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.students.predictErr = classifier.ErrModelNotTrained
	w = env.do(http.MethodPost, "/api/v1/students/predict", validPrediction)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "model not trained", decode(t, w)["error"])

	env.students.predictErr = fmt.Errorf("%w: encoder mismatch", classifier.ErrPrediction)
	w = env.do(http.MethodPost, "/api/v1/students/predict", validPrediction)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Prediction error")
}

func TestPredictRequest_Record(t *testing.T) {
	var req PredictRequest
	require.NoError(t, json.Unmarshal(validPrediction, &req))
	record := req.Record()
	assert.Equal(t, "Yes", *record.SuicidalThoughts)
	assert.Equal(t, 7.5, *record.CGPA)
	assert.Equal(t, 0, record.Depression)
}

func TestTrainRequiresAdminToken(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/v1/students/model/train", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/students/model/train", nil, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/students/model/train", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := IssueToken("other-secret", "cli", time.Minute)
	require.NoError(t, err)
	w = env.do(http.MethodPost, "/api/v1/students/model/train", nil, "Authorization", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "viewer", "role": "viewer", "exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := viewer.SignedString([]byte(testSecret))
	require.NoError(t, err)
	w = env.do(http.MethodPost, "/api/v1/students/model/train", nil, "Authorization", "Bearer "+signed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, env.students.trainCalls)

	w = env.do(http.MethodPost, "/api/v1/students/model/train", nil, "Authorization", "Bearer "+adminToken(t))
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 0.9, body["accuracy"])
	assert.Equal(t, 1.0, body["run_id"])
	assert.Equal(t, 1, env.students.trainCalls)
}

func TestExpiredToken(t *testing.T) {
	env := newTestEnv()
	token, err := IssueToken(testSecret, "cli", -time.Minute)
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/v1/articles/index/rebuild", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeStudents{}, &fakeArticles{}, &fakeGraphs{}, AppInfo{})
	router := SetupRouter(h, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/model/train", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := IssueToken("", "cli", time.Minute)
	assert.Error(t, err)
}

func TestLatestModelNotFound(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodGet, "/api/v1/students/model", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticles(t *testing.T) {
	env := newTestEnv()

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/articles", nil).Code)

	w := env.do(http.MethodGet, "/api/v1/articles/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Article not found", decode(t, w)["error"])

	w = env.do(http.MethodGet, "/api/v1/articles/search?query=sleep", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sleep", env.articles.lastQuery)
	assert.Equal(t, 10, env.articles.lastLimit)

	w = env.do(http.MethodGet, "/api/v1/articles/search?query=sleep&limit=250", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 250, env.articles.lastLimit)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/articles/search?query=sleep&limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/articles/search?query=s", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/articles/search", nil).Code)

	w = env.do(http.MethodGet, "/api/v1/articles/index", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unfitted", decode(t, w)["state"])

	w = env.do(http.MethodPost, "/api/v1/articles/index/rebuild", nil, "Authorization", "Bearer "+adminToken(t))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["fitted"])
}

func TestGraphs(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/v1/graphs/students/network", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 2.0, body["nodes"])
	assert.Len(t, body["data"], 2)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/graphs/students/1/network", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/graphs/students/9/network", nil).Code)

	w = env.do(http.MethodGet, "/api/v1/graphs/cities/depression", nil)
	assert.JSONEq(t, `[{"city":"Delhi","depressed_count":2}]`, w.Body.String())

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/graphs/pagerank?limit=5", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/api/v1/graphs/communities", nil).Code)

	env.graphs.err = fmt.Errorf("%w: neo4j is not configured", service.ErrUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/v1/graphs/students/network", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/v1/graphs/stats/by_city", nil).Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodOptions, "/api/v1/students", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(http.MethodGet, "/api/v1/students", nil, "Origin", "http://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
