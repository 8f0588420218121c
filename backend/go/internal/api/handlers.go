package api

import (
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/search"
	"MindGraphDB/backend/go/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// StudentAPI 是学生相关接口依赖的业务方法，由 service.StudentService 实现。
type StudentAPI interface {
	List(ctx context.Context, filter models.StudentFilter, skip, limit int) ([]models.Student, error)
	Get(ctx context.Context, id uint) (*models.Student, error)
	Overview(ctx context.Context) (*models.Overview, error)
	StatsByCity(ctx context.Context) ([]models.GroupStat, error)
	StatsByProfession(ctx context.Context) ([]models.GroupStat, error)
	Predict(ctx context.Context, record classifier.Record) (*classifier.Prediction, error)
	Train(ctx context.Context) (*service.TrainOutcome, error)
	LatestRun(ctx context.Context) (*models.TrainingRun, error)
	ModelReady() bool
}

// ArticleAPI 是文献相关接口依赖的业务方法，由 service.ArticleService 实现。
type ArticleAPI interface {
	List(ctx context.Context, skip, limit int) ([]models.Article, error)
	Get(ctx context.Context, id uint) (*models.Article, error)
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
	Rebuild(ctx context.Context) (*service.RebuildResult, error)
	IndexStatus() search.Status
}

// GraphAPI 是图相关接口依赖的业务方法，由 service.GraphService 实现。
type GraphAPI interface {
	StudentNetwork(ctx context.Context, studentID int64) ([]models.GraphEdge, error)
	Network(ctx context.Context, limit int) ([]models.GraphEdge, error)
	DepressedByCity(ctx context.Context) ([]models.CityCount, error)
	DepressionByCity(ctx context.Context) ([]models.GraphStat, error)
	DepressionByProfession(ctx context.Context) ([]models.GraphStat, error)
	PageRank(ctx context.Context, limit int) ([]models.RankedStudent, error)
	Communities(ctx context.Context) ([]models.Community, error)
}

// HealthCheck 检查一个外部依赖，为 nil 表示该依赖未配置。
type HealthCheck func(ctx context.Context) error

// NamedCheck 是 /health 中的一项检查。
type NamedCheck struct {
	Name  string
	Check HealthCheck
}

// AppInfo 是根路径返回的服务信息。
type AppInfo struct {
	Name    string
	Version string
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	students StudentAPI
	articles ArticleAPI
	graphs   GraphAPI
	checks   []NamedCheck
	info     AppInfo
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(students StudentAPI, articles ArticleAPI, graphs GraphAPI, info AppInfo, checks ...NamedCheck) *Handler {
	return &Handler{students: students, articles: articles, graphs: graphs, info: info, checks: checks}
}

// --- Service ---

// Root 返回服务信息和各模块入口。
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.info.Name,
		"version": h.info.Version,
		"endpoints": gin.H{
			"students": "/api/v1/students",
			"articles": "/api/v1/articles",
			"graphs":   "/api/v1/graphs",
		},
	})
}

// Health 逐项检查外部依赖。任一已配置的依赖不可用时返回 503。
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	body := gin.H{}
	for _, nc := range h.checks {
		switch {
		case nc.Check == nil:
			body[nc.Name] = "not configured"
		case nc.Check(ctx) != nil:
			body[nc.Name] = "disconnected"
			status = "degraded"
		default:
			body[nc.Name] = "connected"
		}
	}
	body["status"] = status
	body["model_trained"] = h.students.ModelReady()
	body["search_index"] = h.articles.IndexStatus().State

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}

// --- Students ---

// ListStudentsQuery 定义了学生列表的查询参数。
type ListStudentsQuery struct {
	Skip       int    `form:"skip,default=0" binding:"min=0"`
	Limit      int    `form:"limit,default=100" binding:"min=1,max=1000"`
	Depression *int   `form:"depression" binding:"omitempty,oneof=0 1"`
	City       string `form:"city"`
}

func (h *Handler) ListStudents(c *gin.Context) {
	var q ListStudentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	students, err := h.students.List(c.Request.Context(), models.StudentFilter{Depression: q.Depression, City: q.City}, q.Skip, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Student not found")
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) StudentOverview(c *gin.Context) {
	overview, err := h.students.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) StudentStatsByCity(c *gin.Context) {
	stats, err := h.students.StatsByCity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) StudentStatsByProfession(c *gin.Context) {
	stats, err := h.students.StatsByProfession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PredictRequest 定义了预测请求的 JSON 结构，所有字段必填。
type PredictRequest struct {
	Gender            *string  `json:"gender" binding:"required"`
	Age               *float64 `json:"age" binding:"required"`
	AcademicPressure  *float64 `json:"academic_pressure" binding:"required"`
	WorkPressure      *float64 `json:"work_pressure" binding:"required"`
	CGPA              *float64 `json:"cgpa" binding:"required"`
	StudySatisfaction *float64 `json:"study_satisfaction" binding:"required"`
	JobSatisfaction   *float64 `json:"job_satisfaction" binding:"required"`
	SleepDuration     *string  `json:"sleep_duration" binding:"required"`
	DietaryHabits     *string  `json:"dietary_habits" binding:"required"`
	SuicidalThoughts  *string  `json:"suicidal_thoughts" binding:"required"`
	WorkStudyHours    *float64 `json:"work_study_hours" binding:"required"`
	FinancialStress   *float64 `json:"financial_stress" binding:"required"`
	FamilyHistory     *string  `json:"family_history" binding:"required"`
}

// Record 把请求转换为分类器输入。
func (r PredictRequest) Record() classifier.Record {
	return classifier.Record{
		Gender:            r.Gender,
		Age:               r.Age,
		AcademicPressure:  r.AcademicPressure,
		WorkPressure:      r.WorkPressure,
		CGPA:              r.CGPA,
		StudySatisfaction: r.StudySatisfaction,
		JobSatisfaction:   r.JobSatisfaction,
		SleepDuration:     r.SleepDuration,
		DietaryHabits:     r.DietaryHabits,
		SuicidalThoughts:  r.SuicidalThoughts,
		WorkStudyHours:    r.WorkStudyHours,
		FinancialStress:   r.FinancialStress,
		FamilyHistory:     r.FamilyHistory,
	}
}

// Predict 处理抑郁预测请求。
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prediction, err := h.students.Predict(c.Request.Context(), req.Record())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// TrainModel 用当前全部学生记录重新训练模型。
func (h *Handler) TrainModel(c *gin.Context) {
	outcome, err := h.students.Train(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// LatestModel 返回最近一次训练记录。
func (h *Handler) LatestModel(c *gin.Context) {
	run, err := h.students.LatestRun(c.Request.Context())
	if err != nil {
		respondError(c, err, "No training run recorded")
		return
	}
	c.JSON(http.StatusOK, run)
}

// --- Articles ---

// ListArticlesQuery 定义了文献列表的查询参数。
type ListArticlesQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=20" binding:"min=1,max=1000"`
}

func (h *Handler) ListArticles(c *gin.Context) {
	var q ListArticlesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	articles, err := h.articles.List(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	article, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Article not found")
		return
	}
	c.JSON(http.StatusOK, article)
}

// SearchQuery 定义了文献检索的查询参数。
type SearchQuery struct {
	Query string `form:"query" binding:"required,min=2"`
	Limit int    `form:"limit,default=10" binding:"min=1"`
}

// SearchArticles 用 TF-IDF 检索文献。
func (h *Handler) SearchArticles(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.articles.Search(c.Request.Context(), q.Query, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) IndexStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.articles.IndexStatus())
}

// RebuildIndex 从数据库重新读取文献并重建检索索引。
func (h *Handler) RebuildIndex(c *gin.Context) {
	result, err := h.articles.Rebuild(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Graphs ---

// NetworkQuery 定义了学生网络的查询参数。
type NetworkQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=1000"`
}

// RankQuery 定义了 PageRank 的查询参数。
type RankQuery struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=1000"`
}

// StudentsNetwork 返回学生与相邻节点的关系，格式为 {"nodes": 条数, "data": 关系列表}。
func (h *Handler) StudentsNetwork(c *gin.Context) {
	var q NetworkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	edges, err := h.graphs.Network(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": len(edges), "data": edges})
}

func (h *Handler) StudentNetwork(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	edges, err := h.graphs.StudentNetwork(c.Request.Context(), int64(id))
	if err != nil {
		respondError(c, err, "Student not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_id": id, "nodes": len(edges), "data": edges})
}

func (h *Handler) CitiesDepression(c *gin.Context) {
	counts, err := h.graphs.DepressedByCity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) GraphStatsByCity(c *gin.Context) {
	stats, err := h.graphs.DepressionByCity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GraphStatsByProfession(c *gin.Context) {
	stats, err := h.graphs.DepressionByProfession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) PageRank(c *gin.Context) {
	var q RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ranked, err := h.graphs.PageRank(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}

func (h *Handler) Communities(c *gin.Context) {
	communities, err := h.graphs.Communities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// --- helpers ---

// parseID 解析路径中的 id，失败时直接写出 400。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id %q", c.Param("id"))})
		return 0, false
	}
	return uint(id), true
}

// respondError 把业务错误映射为 HTTP 状态码。notFound 用于覆盖 404 时的提示信息。
func respondError(c *gin.Context, err error, notFound ...string) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrNotFound):
		msg := "Not found"
		if len(notFound) > 0 {
			msg = notFound[0]
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.Is(err, classifier.ErrModelNotTrained):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not trained"})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, classifier.ErrNotEnoughData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, classifier.ErrPrediction):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction error: " + err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
