package main

import (
	"MindGraphDB/backend/go/internal/api"
	"MindGraphDB/backend/go/internal/app"
	"MindGraphDB/backend/go/internal/config"
	"MindGraphDB/backend/go/internal/discovery/etcd"
	"MindGraphDB/backend/go/internal/models"
	mghttp "MindGraphDB/backend/go/pkg/http"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(config.PathFromEnv())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(etcd.APIService, "", "")
	appLogger.Info("Starting MindGraphDB API")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies (Store -> Service -> Handler)
	deps, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer deps.Close(context.Background())
	deps.LoadModel(ctx)
	appLogger.Info("Dependencies injected")

	handler := api.NewHandler(deps.Students, deps.Articles, deps.Graphs,
		api.AppInfo{Name: cfg.App.Name, Version: cfg.App.Version}, deps.HealthChecks()...)
	router := api.SetupRouter(handler, api.RouterConfig{
		JwtSecret:      cfg.Auth.JwtSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            appLogger,
	})

	server, err := mghttp.NewServer(cfg, router, mghttp.WithLogger(appLogger))
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Register with etcd when endpoints are configured
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		unregister := register(ctx, cfg, server.Addr(), appLogger)
		defer unregister()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("HTTP server stopped")
		}
	case <-ctx.Done():
		appLogger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Graceful shutdown failed")
		}
	}
}

// register 把服务地址注册到 etcd，返回注销函数。注册失败只记录警告。
func register(ctx context.Context, cfg *config.AppConfig, addr string, log *logger.Logger) func() {
	sd, err := etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Etcd unavailable, skipping registration")
		return func() {}
	}
	stop, err := sd.Register(ctx, etcd.APIService, advertiseAddr(addr), cfg.Databases.Etcd.LeaseTTL)
	if err != nil {
		sd.Close()
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Service registration failed")
		return func() {}
	}
	log.WithPayload(map[string]interface{}{"service": etcd.APIService, "address": addr}).Info("Registered with etcd")
	return func() {
		stop()
		sd.Close()
	}
}

// advertiseAddr 把 ":8000" 这样的监听地址补全为可被其他主机访问的地址。
func advertiseAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		return host + addr
	}
	return addr
}
