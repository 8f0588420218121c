package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	recordFile  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search articles with the TF-IDF index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		query := url.Values{"query": {args[0]}, "limit": {strconv.Itoa(searchLimit)}}
		var results []map[string]interface{}
		if err := client.GetJSON(cmd.Context(), "/api/v1/articles/search", query, &results); err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matching articles.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%2d. [%.4f] %v (id %v)\n", i+1, r["score"], r["title"], r["id"])
		}
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict depression for a survey record read from a JSON file ('-' for stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if recordFile == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(recordFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}
		var record map[string]interface{}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("record is not valid JSON: %w", err)
		}

		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		var prediction map[string]interface{}
		if err := client.PostJSON(cmd.Context(), "/api/v1/students/predict", record, &prediction); err != nil {
			return err
		}
		return printJSON(prediction)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show overall student statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		var overview map[string]interface{}
		if err := client.GetJSON(cmd.Context(), "/api/v1/students/stats/overview", nil, &overview); err != nil {
			return err
		}
		return printJSON(overview)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(statsCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	predictCmd.Flags().StringVarP(&recordFile, "file", "f", "-", "JSON file with the survey record")
}
