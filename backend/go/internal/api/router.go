package api

import (
	"MindGraphDB/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig 包含路由层需要的配置。
type RouterConfig struct {
	JwtSecret      string
	AllowedOrigins []string
	Log            *logger.Logger
}

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), CORS(cfg.AllowedOrigins))

	admin := AdminMiddleware(cfg.JwtSecret)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	apiV1 := r.Group("/api/v1")
	{
		students := apiV1.Group("/students")
		{
			students.GET("", h.ListStudents)
			students.GET("/stats/overview", h.StudentOverview)
			students.GET("/stats/by_city", h.StudentStatsByCity)
			students.GET("/stats/by_profession", h.StudentStatsByProfession)
			students.POST("/predict", h.Predict)
			students.GET("/model", h.LatestModel)
			students.POST("/model/train", admin, h.TrainModel)
			students.GET("/:id", h.GetStudent)
		}

		articles := apiV1.Group("/articles")
		{
			articles.GET("", h.ListArticles)
			articles.GET("/search", h.SearchArticles)
			articles.GET("/index", h.IndexStatus)
			articles.POST("/index/rebuild", admin, h.RebuildIndex)
			articles.GET("/:id", h.GetArticle)
		}

		graphs := apiV1.Group("/graphs")
		{
			graphs.GET("/students/network", h.StudentsNetwork)
			graphs.GET("/students/:id/network", h.StudentNetwork)
			graphs.GET("/cities/depression", h.CitiesDepression)
			graphs.GET("/stats/by_city", h.GraphStatsByCity)
			graphs.GET("/stats/by_profession", h.GraphStatsByProfession)
			graphs.GET("/pagerank", h.PageRank)
			graphs.GET("/communities", h.Communities)
		}
	}

	return r
}
