// harvestctl is a small operator CLI for a running harvestd instance.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/siteforge/harvest/models"
)

var (
	apiURL string
	apiKey string
)

func main() {
	root := &cobra.Command{
		Use:           "harvestctl",
		Short:         "Control a running harvestd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api", envOr("HARVEST_API_URL", "http://127.0.0.1:8080"), "base URL of the harvestd API")
	root.PersistentFlags().StringVar(&apiKey, "key", os.Getenv("HARVEST_API_KEY"), "API key (X-API-Key)")

	root.AddCommand(newCrawlCmd(), newStatusCmd(), newClassifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCrawlCmd() *cobra.Command {
	var (
		templateID string
		maxPages   int
		maxDepth   int
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "crawl <start-url>",
		Short: "Start a harvest job for a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.HarvestRequest{
				StartURL:   args[0],
				TemplateID: templateID,
				MaxPages:   maxPages,
				MaxDepth:   maxDepth,
			}

			var resp models.HarvestResponse
			if err := apiCall(cmd.Context(), http.MethodPost, "/api/v1/harvest", req, &resp); err != nil {
				return err
			}
			if resp.Error != nil {
				return fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
			}
			fmt.Println("job:", resp.ID)

			if !wait {
				return nil
			}
			return pollUntilDone(cmd.Context(), resp.ID)
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "template ID to persist pages under (required)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page budget (server default if 0)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "depth budget (server default if 0)")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job finishes")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a harvest job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp models.HarvestStatusResponse
			if err := apiCall(cmd.Context(), http.MethodGet, "/api/v1/harvest/"+args[0], nil, &resp); err != nil {
				return err
			}
			printStatus(&resp)
			return nil
		},
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <candidates.json>",
		Short: "Filter search-result candidates down to real business sites",
		Long:  "Reads a JSON array of {url, title, snippet, rank} objects and prints the survivors with sequential ranks. Use '-' to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			var candidates []models.CandidateSite
			if err := json.Unmarshal(raw, &candidates); err != nil {
				return fmt.Errorf("parse candidates: %w", err)
			}

			var resp models.ClassifyResponse
			if err := apiCall(cmd.Context(), http.MethodPost, "/api/v1/classify",
				models.ClassifyRequest{Candidates: candidates}, &resp); err != nil {
				return err
			}

			for _, c := range resp.Candidates {
				fmt.Printf("%3d  %s\n", c.Rank, c.URL)
			}
			fmt.Fprintf(os.Stderr, "kept %d, rejected %d\n", len(resp.Candidates), resp.Rejected)
			return nil
		},
	}
}

func pollUntilDone(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var resp models.HarvestStatusResponse
			if err := apiCall(ctx, http.MethodGet, "/api/v1/harvest/"+jobID, nil, &resp); err != nil {
				return err
			}
			if resp.Status != "processing" {
				printStatus(&resp)
				return nil
			}
			fmt.Fprintf(os.Stderr, "processing... %d pages\n", resp.PagesScraped)
		}
	}
}

func printStatus(resp *models.HarvestStatusResponse) {
	fmt.Printf("status: %s\npages:  %d\n", resp.Status, resp.PagesScraped)
	for _, p := range resp.Pages {
		fmt.Printf("  %3d  depth=%d  %s\n", p.Order, p.Depth, p.URL)
	}
	for _, e := range resp.Errors {
		fmt.Fprintln(os.Stderr, "error:", e)
	}
}

func apiCall(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error models.ErrorDetail `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
