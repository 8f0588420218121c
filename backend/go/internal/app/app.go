package app

import (
	"MindGraphDB/backend/go/internal/api"
	"MindGraphDB/backend/go/internal/artifact"
	"MindGraphDB/backend/go/internal/audit"
	"MindGraphDB/backend/go/internal/cache"
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/internal/config"
	kafkadb "MindGraphDB/backend/go/internal/database/kafka"
	miniodb "MindGraphDB/backend/go/internal/database/minio"
	mongodb "MindGraphDB/backend/go/internal/database/mongo"
	"MindGraphDB/backend/go/internal/database/mysql"
	neo4jdb "MindGraphDB/backend/go/internal/database/neo4j"
	redisdb "MindGraphDB/backend/go/internal/database/redis"
	"MindGraphDB/backend/go/internal/events"
	"MindGraphDB/backend/go/internal/graph"
	"MindGraphDB/backend/go/internal/ingest"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/search"
	"MindGraphDB/backend/go/internal/service"
	"MindGraphDB/backend/go/internal/store"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// App 持有一次进程生命周期内的全部依赖。
// MySQL 是必需的，其余外部组件连接失败时只记录警告并降级。
type App struct {
	Config   *config.AppConfig
	Log      *logger.Logger
	DB       *gorm.DB
	Students *service.StudentService
	Articles *service.ArticleService
	Graphs   *service.GraphService
	Loader   *ingest.Loader

	neo4j  *neo4jdb.Neo4jClient
	redis  bool
	minio  bool
	events events.Publisher
}

// New 按 Store -> Service 的顺序组装依赖。
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, events: events.Noop{}}

	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	a.DB = db
	log.Info("Database migration completed")

	studentStore := store.NewStudentStore(db)
	articleStore := store.NewArticleStore(db)
	runStore := store.NewTrainingRunStore(db)

	var statsCache cache.StatsCache = cache.Noop{}
	if rdb, err := redisdb.GetClient(&cfg.Databases.Redis); err != nil {
		a.warn(err, "Redis unavailable, stats cache disabled")
	} else if rdb != nil {
		statsCache = cache.NewRedisCache(rdb, time.Duration(cfg.Databases.Redis.TTL)*time.Second)
		a.redis = true
	}

	var recorder audit.Recorder = audit.Noop{}
	if mc, err := mongodb.GetClient(&cfg.Databases.MongoDB); err != nil {
		a.warn(err, "MongoDB unavailable, prediction audit disabled")
	} else if mc != nil {
		recorder = audit.NewMongoRecorder(mc, cfg.Databases.MongoDB.Database, cfg.Databases.MongoDB.Collection)
	}

	if w, err := kafkadb.GetWriter(&cfg.Databases.Kafka); err != nil {
		a.warn(err, "Kafka unavailable, domain events disabled")
	} else if w != nil {
		a.events = events.NewKafkaPublisher(w)
	}

	var artifacts artifact.Store = artifact.NewFileStore(cfg.Classifier.ModelPath)
	if mc, err := miniodb.GetClient(ctx, &cfg.Databases.MinIO); err != nil {
		a.warn(err, "MinIO unavailable, model artifacts stay local")
	} else if mc != nil {
		artifacts = artifact.NewMinIOMirror(artifact.NewFileStore(cfg.Classifier.ModelPath), mc, cfg.Databases.MinIO.Bucket, log)
		a.minio = true
	}

	// 接口变量必须保持为 nil，不能装入空指针。
	var graphReader service.GraphReader
	var graphWriter ingest.GraphWriter
	if nc, err := neo4jdb.GetClient(ctx, &cfg.Databases.Neo4j); err != nil {
		a.warn(err, "Neo4j unavailable, graph endpoints disabled")
	} else if nc != nil {
		a.neo4j = nc
		gs := graph.NewStore(nc)
		graphReader, graphWriter = gs, gs
	}

	clf := classifier.New(classifier.Options{Seed: cfg.Classifier.Seed, TestRatio: cfg.Classifier.TestRatio}, log)
	a.Students = service.NewStudentService(service.StudentDeps{
		Students:   studentStore,
		Runs:       runStore,
		Classifier: clf,
		Artifacts:  artifacts,
		Cache:      statsCache,
		Audit:      recorder,
		Events:     a.events,
		Log:        log,
	})

	tokenizer, err := search.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("初始化分词器失败: %w", err)
	}
	a.Articles, err = service.NewArticleService(articleStore, tokenizer, search.Options{
		MaxFeatures:   cfg.Search.MaxFeatures,
		PreviewLength: cfg.Search.PreviewLength,
		CacheSize:     cfg.Search.CacheSize,
	}, a.events, log)
	if err != nil {
		return nil, err
	}
	a.Graphs = service.NewGraphService(graphReader)

	a.Loader = &ingest.Loader{
		Students: studentStore,
		Articles: articleStore,
		Graph:    graphWriter,
		Events:   a.events,
		Log:      log,
	}
	return a, nil
}

func (a *App) warn(err error, message string) {
	a.Log.WithError(models.ErrorInfo{Message: err.Error()}).Warn(message)
}

// LoadModel 在启动时加载模型文件。缺少模型文件只是警告，服务在训练前不提供预测。
func (a *App) LoadModel(ctx context.Context) {
	err := a.Students.LoadModel(ctx)
	switch {
	case err == nil:
	case errors.Is(err, artifact.ErrNoArtifact):
		a.Log.Warn("Model not found. Train it first with: mindgraph-cli train")
	default:
		a.warn(err, "Failed to load depression model")
	}
}

// HealthChecks 返回 /health 使用的依赖检查，未配置的组件检查函数为 nil。
func (a *App) HealthChecks() []api.NamedCheck {
	checks := []api.NamedCheck{{Name: "database", Check: mysql.HealthCheck}}
	if a.neo4j != nil {
		checks = append(checks, api.NamedCheck{Name: "neo4j", Check: a.neo4j.HealthCheck})
	} else {
		checks = append(checks, api.NamedCheck{Name: "neo4j"})
	}
	if a.redis {
		checks = append(checks, api.NamedCheck{Name: "redis", Check: redisdb.HealthCheck})
	} else {
		checks = append(checks, api.NamedCheck{Name: "redis"})
	}
	if a.minio {
		checks = append(checks, api.NamedCheck{Name: "minio", Check: miniodb.HealthCheck})
	}
	return checks
}

// Close 关闭所有外部连接。
func (a *App) Close(ctx context.Context) {
	if err := a.events.Close(); err != nil {
		a.warn(err, "Failed to close event publisher")
	}
	if err := a.neo4j.Close(ctx); err != nil {
		a.warn(err, "Failed to close Neo4j driver")
	}
	if err := mongodb.Close(ctx); err != nil {
		a.warn(err, "Failed to close MongoDB client")
	}
	if err := redisdb.Close(); err != nil {
		a.warn(err, "Failed to close Redis client")
	}
	if err := mysql.Close(); err != nil {
		a.warn(err, "Failed to close MySQL connection")
	}
}
