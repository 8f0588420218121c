package main

import (
	"MindGraphDB/backend/go/internal/config"
	"MindGraphDB/backend/go/internal/discovery/etcd"
	mghttp "MindGraphDB/backend/go/pkg/http"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	serverURL  string
	token      string
	discover   bool
)

var rootCmd = &cobra.Command{
	Use:   "mindgraph-cli",
	Short: "A CLI client for the MindGraphDB analytical backend",
	Long: `A command-line interface for loading survey and article datasets, training the depression model,
issuing admin tokens and querying the MindGraphDB API.`,
	SilenceUsage: true,
}

// Execute 执行根命令，由 main 调用一次。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.PathFromEnv(), "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the MindGraphDB API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MINDGRAPH_TOKEN"), "admin bearer token for protected endpoints")
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "resolve the API address through etcd instead of --server")
}

func loadConfig() (*config.AppConfig, error) {
	return config.LoadConfig(configPath)
}

// newAPIClient 创建 API 客户端。使用 --discover 时从 etcd 中取第一个已注册实例。
func newAPIClient(ctx context.Context) (*mghttp.Client, error) {
	base := serverURL
	breaker := config.CircuitBreakerConfig{}
	if discover {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		breaker = cfg.Middleware.CircuitBreaker
		addr, err := discoverAPI(ctx, cfg.Databases.Etcd.Endpoints)
		if err != nil {
			return nil, err
		}
		base = "http://" + addr
	}
	return mghttp.NewClient(base, breaker, mghttp.WithToken(token), mghttp.WithTimeout(5*time.Minute))
}

func discoverAPI(ctx context.Context, endpoints []string) (string, error) {
	sd, err := etcd.NewServiceDiscovery(endpoints)
	if err != nil {
		return "", err
	}
	defer sd.Close()

	addrs, err := sd.Discover(ctx, etcd.APIService)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no %s instance registered in etcd", etcd.APIService)
	}
	return addrs[0], nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
