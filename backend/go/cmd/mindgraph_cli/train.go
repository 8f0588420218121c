package main

import (
	"MindGraphDB/backend/go/internal/api"
	"MindGraphDB/backend/go/internal/app"
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var (
	trainLocal bool
	tokenTTL   time.Duration
	subject    string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the depression model on all students",
	Long: `Train the depression model. By default the running API trains and starts serving the new model.
With --local the model is trained in this process and written to the configured artifact store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainLocal {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				outcome, err := a.Students.Train(ctx)
				if err != nil {
					return err
				}
				return printJSON(outcome)
			})
		}

		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		var outcome map[string]interface{}
		if err := client.PostJSON(cmd.Context(), "/api/v1/students/model/train", nil, &outcome); err != nil {
			return err
		}
		return printJSON(outcome)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin token signed with the configured JWT secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.Auth.TokenTTL) * time.Second
		}
		if cfg.Auth.JwtSecret == "" {
			return errors.New("auth.jwtSecret is empty; set MINDGRAPH_JWT_SECRET")
		}
		signed, err := api.IssueToken(cfg.Auth.JwtSecret, subject, ttl)
		if err != nil {
			return err
		}
		cmd.Println(signed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(tokenCmd)
	trainCmd.Flags().BoolVar(&trainLocal, "local", false, "train in this process instead of calling the API")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: auth.tokenTTL from the config)")
	tokenCmd.Flags().StringVar(&subject, "subject", "mindgraph-cli", "subject claim of the token")
}
