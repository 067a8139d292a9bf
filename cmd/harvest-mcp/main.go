// harvest-mcp exposes a running harvestd instance as MCP tools over stdio.
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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// harvestResponse mirrors the Harvest API response model.
type harvestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// candidate mirrors the classify API candidate model.
type candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	harvestSiteTool := mcp.NewTool("harvest_site",
		mcp.WithDescription("Harvest a website: crawl it breadth-first from a seed URL and capture each page's rendered HTML, CSS, scripts, images, structured text and design tokens. Returns the harvested pages when the job finishes."),
		mcp.WithString("start_url",
			mcp.Required(),
			mcp.Description("The seed URL of the site to harvest"),
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("Identifier the harvested pages are stored under"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of pages to harvest (default: 100, max: 500)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum link distance from the seed URL (default: 5, max: 10)"),
		),
	)
	s.AddTool(harvestSiteTool, handleHarvestSite(apiURL, apiKey))

	harvestStatusTool := mcp.NewTool("harvest_status",
		mcp.WithDescription("Check the status of a harvest job by ID without waiting for completion."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The harvest job ID returned by harvest_site"),
		),
	)
	s.AddTool(harvestStatusTool, handleHarvestStatus(apiURL, apiKey))

	classifyTool := mcp.NewTool("classify_candidates",
		mcp.WithDescription("Filter a list of search-result candidates down to individual business websites, rejecting directories, listicles, aggregators and social profiles. Survivors are re-ranked sequentially."),
		mcp.WithArray("candidates",
			mcp.Required(),
			mcp.Description("Array of candidate objects with url, title, snippet and rank fields"),
		),
	)
	s.AddTool(classifyTool, handleClassify(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleHarvestSite(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startURL, err := request.RequireString("start_url")
		if err != nil {
			return mcp.NewToolResultError("start_url is required"), nil
		}
		templateID, err := request.RequireString("template_id")
		if err != nil {
			return mcp.NewToolResultError("template_id is required"), nil
		}

		payload := map[string]interface{}{
			"start_url":   startURL,
			"template_id": templateID,
		}
		args := request.GetArguments()
		if maxPages, ok := args["max_pages"]; ok {
			payload["max_pages"] = maxPages
		}
		if maxDepth, ok := args["max_depth"]; ok {
			payload["max_depth"] = maxDepth
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/harvest", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp harvestResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Message)), nil
		}

		// Harvests take minutes: poll until terminal.
		final, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/harvest/"+resp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("poll job: %v", err)), nil
		}
		return mcp.NewToolResultText(string(final)), nil
	}
}

func handleHarvestStatus(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}

		body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/harvest/"+jobID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func handleClassify(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		rawCandidates, ok := args["candidates"]
		if !ok {
			return mcp.NewToolResultError("candidates is required"), nil
		}

		// Round-trip through JSON to validate the shape.
		encoded, err := json.Marshal(rawCandidates)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode candidates: %v", err)), nil
		}
		var candidates []candidate
		if err := json.Unmarshal(encoded, &candidates); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("candidates must be an array of {url, title, snippet, rank}: %v", err)), nil
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/classify",
			map[string]interface{}{"candidates": candidates})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// apiPost sends a POST request to the Harvest API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiGet(ctx, client, apiURL, apiKey, endpoint)
			if err != nil {
				return nil, err
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}
