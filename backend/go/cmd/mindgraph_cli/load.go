package main

import (
	"MindGraphDB/backend/go/internal/app"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loadWorkers int
	rebuild     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load datasets into MySQL and Neo4j",
}

var loadStudentsCmd = &cobra.Command{
	Use:   "students [file]",
	Short: "Load the student survey dataset (CSV or XLSX)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			a.Loader.Workers = loadWorkers
			n, err := a.Loader.LoadStudents(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.Students.InvalidateStats(ctx); err != nil {
				a.Log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to invalidate stats cache")
			}
			fmt.Printf("Loaded %d students\n", n)
			return nil
		})
	},
}

var loadArticlesCmd = &cobra.Command{
	Use:   "articles [file]",
	Short: "Load the ';' separated article dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Loader.LoadArticles(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d articles\n", n)
			if !rebuild {
				return nil
			}
			client, err := newAPIClient(ctx)
			if err != nil {
				return err
			}
			var result map[string]interface{}
			if err := client.PostJSON(ctx, "/api/v1/articles/index/rebuild", nil, &result); err != nil {
				return fmt.Errorf("articles loaded but index rebuild failed: %w", err)
			}
			return printJSON(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.AddCommand(loadStudentsCmd)
	loadCmd.AddCommand(loadArticlesCmd)
	loadStudentsCmd.Flags().IntVar(&loadWorkers, "workers", 0, "number of concurrent Neo4j writers (default: number of CPUs)")
	loadArticlesCmd.Flags().BoolVar(&rebuild, "rebuild-index", false, "ask the running API to rebuild its search index afterwards")
}

// withApp 按配置连接所有存储，执行 fn 后关闭连接。
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	a, err := app.New(ctx, cfg, logger.New("mindgraph_cli", "", ""))
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}
