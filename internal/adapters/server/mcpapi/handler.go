// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/slaboard/internal/adapters/server/common"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with dashboard read tools and an optional refresh tool.
func NewHandler(cfg Config, reader common.DashboardReader, refresher common.Refresher) (*Handler, error) {
	if reader == nil {
		return nil, fmt.Errorf("dashboard reader is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerViewTools(mcpSrv, reader)
	registerTrendTool(mcpSrv, reader)
	if refresher != nil {
		registerRefreshTool(mcpSrv, refresher)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "slaboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerViewTools registers the overview, area, application, activity and consistency tools.
func registerViewTools(srv *mcpserver.MCPServer, reader common.DashboardReader) {
	srv.AddTool(
		mcp.NewTool(
			"slaboard.overview",
			mcp.WithDescription("Return system-wide SLA totals, health and one card per business area."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := reader.Overview(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("overview", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"slaboard.business_area",
			mcp.WithDescription("Return one business area rollup with its application cards."),
			mcp.WithString("business_area", mcp.Required(), mcp.Description("Business area name, e.g. FX")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			area, err := req.RequireString("business_area")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := reader.BusinessArea(ctx, area)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("business_area", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"slaboard.application",
			mcp.WithDescription("Return one application rollup with per-activity SLA outcomes."),
			mcp.WithString("business_area", mcp.Required(), mcp.Description("Business area name")),
			mcp.WithString("app_id", mcp.Required(), mcp.Description("Application identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			area, err := req.RequireString("business_area")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			appID, err := req.RequireString("app_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := reader.Application(ctx, area, appID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("application", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"slaboard.activity",
			mcp.WithDescription("Return one activity definition with its representative status and every run."),
			mcp.WithString("activity_id", mcp.Required(), mcp.Description("Activity identifier, e.g. 1FX-01")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			activityID, err := req.RequireString("activity_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := reader.Activity(ctx, activityID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("activity", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"slaboard.consistency",
			mcp.WithDescription("List orphan statuses, pending definitions and duplicate records in the current snapshot."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			report, err := reader.Consistency(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("consistency", report)
		},
	)
}

// registerTrendTool registers the `slaboard.trends` tool.
func registerTrendTool(srv *mcpserver.MCPServer, reader common.DashboardReader) {
	srv.AddTool(
		mcp.NewTool(
			"slaboard.trends",
			mcp.WithDescription("Return a 30-day synthetic SLA trend series. Omit every field for the system scope."),
			mcp.WithString("business_area", mcp.Description("Business area scope")),
			mcp.WithString("app_id", mcp.Description("Application scope (requires business_area)")),
			mcp.WithString("activity_id", mcp.Description("Activity scope (exclusive with area/app)")),
			mcp.WithString("activity_name", mcp.Description("Display name for an activity scope")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := reader.Trends(ctx, common.TrendRequest{
				BusinessArea: req.GetString("business_area", ""),
				AppID:        req.GetString("app_id", ""),
				ActivityID:   req.GetString("activity_id", ""),
				ActivityName: req.GetString("activity_name", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("trends", view)
		},
	)
}

// registerRefreshTool registers the `slaboard.refresh` tool.
func registerRefreshTool(srv *mcpserver.MCPServer, refresher common.Refresher) {
	srv.AddTool(
		mcp.NewTool(
			"slaboard.refresh",
			mcp.WithDescription("Reload definitions and statuses from the configured source."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			res, err := refresher.Refresh(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeResult("refresh", res)
		},
	)
}

// encodeResult wraps one payload as a structured tool result.
func encodeResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
