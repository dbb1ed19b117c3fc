package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitreport/core"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/langs"
	"github.com/huangsam/gitreport/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// classifiedPath is one entry of the classify_paths result.
type classifiedPath struct {
	Path     string          `json:"path"`
	Language schema.Language `json:"language"`
	Vendored bool            `json:"vendored"`
}

func (h *toolHandler) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.analysisConfig(request, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := core.BuildReport(core.WithQuietMode(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	// Keep the payload small for the client
	trimmed := *report
	trimmed.Contributors = report.TopContributors(cfg.ResultLimit)

	jsonData, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// analysisConfig applies the tool arguments on top of the server configuration.
func (h *toolHandler) analysisConfig(request mcp.CallToolRequest, now time.Time) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
	}
	if r := strings.TrimSpace(request.GetString("ref", "")); r != "" {
		cfg.Ref = r
	}
	if cfg.Ref == "" {
		cfg.Ref = contract.DefaultRef
	}
	if g := request.GetString("granularity", ""); g != "" {
		cfg.Granularity = schema.Granularity(strings.ToLower(g))
	}
	if cfg.Granularity == "" {
		cfg.Granularity = schema.DayGranularity
	}
	if _, ok := schema.ValidGranularities[cfg.Granularity]; !ok {
		return nil, fmt.Errorf("invalid granularity '%s'. must be day, week, month", cfg.Granularity)
	}

	if s := request.GetString("since", ""); s != "" {
		t, err := contract.ParseTimeBound("since", s, now)
		if err != nil {
			return nil, err
		}
		cfg.StartTime = t
	}
	if u := request.GetString("until", ""); u != "" {
		t, err := contract.ParseTimeBound("until", u, now)
		if err != nil {
			return nil, err
		}
		cfg.EndTime = t
	}
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return nil, fmt.Errorf("since cannot be after until")
	}

	if m := request.GetInt("max_commits", 0); m != 0 {
		if m < 0 {
			return nil, fmt.Errorf("max_commits cannot be negative (received %d)", m)
		}
		cfg.MaxCommits = m
	}
	if l := request.GetInt("limit", 0); l != 0 {
		if l < 0 || l > contract.MaxResultLimit {
			return nil, fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", contract.MaxResultLimit, l)
		}
		cfg.ResultLimit = l
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = contract.DefaultResultLimit
	}
	return cfg, nil
}

func (h *toolHandler) handleClassifyPaths(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result []classifiedPath
	for _, field := range strings.FieldsFunc(request.GetString("paths", ""), func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		path := strings.TrimSpace(field)
		if path == "" {
			continue
		}
		result = append(result, classifiedPath{
			Path:     path,
			Language: langs.Classify(path),
			Vendored: langs.IsVendored(path),
		})
	}
	if len(result) == 0 {
		return mcp.NewToolResultError("paths is required"), nil
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
