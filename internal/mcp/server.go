// Package mcp provides a Model Context Protocol server for featuremap.
//
// It exposes the ranked feature clusters of past mining runs as MCP tools
// over stdio, so agents can ask "what should we build next" against the
// latest run without shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hurttlocker/featuremap/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   *store.Store
	Version string
}

// dbMu serializes tool calls that touch the database. The mcp-go library
// dispatches handlers concurrently, and SQLite allows only one writer.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all featuremap tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"featuremap",
		ver,
		server.WithToolCapabilities(false),
	)

	registerTopTool(s, cfg.Store)
	registerClusterTool(s, cfg.Store)
	registerRunsTool(s, cfg.Store)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerTopTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("featuremap_top",
		mcp.WithDescription("Return the ranked feature clusters of the latest mining run, highest combined score first. Each cluster carries top terms, issue count, vote sum, and normalized scores."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of clusters to return (default: 10, max: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 10
		if v, err := req.RequireFloat("limit"); err == nil {
			limit = int(v)
			if limit > 100 {
				limit = 100
			}
			if limit <= 0 {
				limit = 10
			}
		}

		run, err := st.LatestRun(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading latest run: %v", err)), nil
		}
		clusters, err := st.RunClusters(ctx, run.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading clusters: %v", err)), nil
		}
		if limit < len(clusters) {
			clusters = clusters[:limit]
		}

		payload := map[string]interface{}{
			"run":      run,
			"clusters": clusters,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerClusterTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("featuremap_cluster",
		mcp.WithDescription("Return one cluster of a mining run by its cluster index. Defaults to the latest run."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Cluster index within the run (0..K-1)"),
		),
		mcp.WithNumber("run_id",
			mcp.Description("Run id; omit for the latest run"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		indexVal, err := req.RequireFloat("index")
		if err != nil {
			return mcp.NewToolResultError("index is required"), nil
		}
		index := int(indexVal)

		var runID int64
		if v, err := req.RequireFloat("run_id"); err == nil && v > 0 {
			runID = int64(v)
		} else {
			run, err := st.LatestRun(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("loading latest run: %v", err)), nil
			}
			runID = run.ID
		}

		clusters, err := st.RunClusters(ctx, runID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading clusters: %v", err)), nil
		}
		for _, c := range clusters {
			if c.Index == index {
				data, _ := json.MarshalIndent(c, "", "  ")
				return mcp.NewToolResultText(string(data)), nil
			}
		}
		return mcp.NewToolResultError(fmt.Sprintf("cluster %d not found in run %d", index, runID)), nil
	})
}

func registerRunsTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("featuremap_runs",
		mcp.WithDescription("List recorded mining runs, newest first, with their parameters and corpus size."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default: 20)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 20
		if v, err := req.RequireFloat("limit"); err == nil && int(v) > 0 {
			limit = int(v)
		}

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing runs: %v", err)), nil
		}
		data, _ := json.MarshalIndent(runs, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
