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

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/app"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
	// JWT verifies bearer tokens. Nil disables bearer authentication.
	JWT *identity.JWT
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
	verifier    *identity.JWT
}

// NewHandler builds one stateless MCP adapter over the dashboard service.
func NewHandler(cfg Config, svc common.Service) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerReadTools(mcpSrv, svc)
	registerRecordTools(mcpSrv, svc)
	registerDraftTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable, verifier: cfg.JWT}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
// Header-supplied identities are attributed as agents.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	actor, ok, err := identity.FromRequest(r, h.verifier, app.ActorTypeAgent)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if ok {
		r = r.WithContext(app.WithActor(r.Context(), actor))
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "sudsboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerReadTools registers taxonomy, registry, and view tools.
func registerReadTools(srv *mcpserver.MCPServer, svc common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"sudsboard.taxonomy",
			mcp.WithDescription("Return maintenance categories, their activity names, and the frequency options."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tax, err := svc.Taxonomy(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("taxonomy", tax)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.list_assets",
			mcp.WithDescription("List SUDS asset types in display order, optionally filtered by location tags."),
			mcp.WithArray("location", mcp.Description("Location tags; an asset matches any of them"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			assets, err := svc.ListAssets(ctx, req.GetStringSlice("location", nil))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_assets", map[string]any{"items": assets})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.list_contracts",
			mcp.WithDescription("List maintenance contracts by name."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			contracts, err := svc.ListContracts(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_contracts", map[string]any{"items": contracts})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.resolve_asset",
			mcp.WithDescription("Return the applicable activities of one asset with dependents nested under their parents."),
			mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset type identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			assetID, err := req.RequireString("asset_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			items, err := svc.ResolveAsset(ctx, assetID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("resolve_asset", map[string]any{"items": items})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.contract_view",
			mcp.WithDescription("Return the activities one contract covers, grouped by asset."),
			mcp.WithString("contract_id", mcp.Required(), mcp.Description("Contract identifier")),
			mcp.WithBoolean("markdown", mcp.Description("Include a markdown report")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			contractID, err := req.RequireString("contract_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			view, err := svc.ContractView(ctx, contractID, req.GetBool("markdown", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("contract_view", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.pivot",
			mcp.WithDescription("Return the cross-asset status and validation summary."),
			mcp.WithString("category", mcp.Description("Restrict columns to one category")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			pivot, err := svc.Pivot(ctx, req.GetString("category", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("pivot", pivot)
		},
	)
}

// registerRecordTools registers the activity-record mutations.
func registerRecordTools(srv *mcpserver.MCPServer, svc common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"sudsboard.set_applies",
			mcp.WithDescription("Mark whether one activity applies to one asset, creating the record on first use."),
			mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset type identifier")),
			mcp.WithString("category", mcp.Required(), mcp.Description("Maintenance category")),
			mcp.WithString("activity_name", mcp.Required(), mcp.Description("Activity name")),
			mcp.WithBoolean("applies", mcp.Required(), mcp.Description("Whether the activity applies")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				AssetID      string `json:"asset_id"`
				Category     string `json:"category"`
				ActivityName string `json:"activity_name"`
				Applies      bool   `json:"applies"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			out, err := svc.SetApplies(ctx, common.SetAppliesRequest{
				AssetTypeID:  args.AssetID,
				Category:     args.Category,
				ActivityName: args.ActivityName,
				Applies:      args.Applies,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("set_applies", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.update_field",
			mcp.WithDescription("Set one proposal field of an activity record. Validation resets to pending."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("Activity record identifier")),
			mcp.WithString("field", mcp.Required(), mcp.Description("Field name"),
				mcp.Enum("status", "comment", "frequency", "involvedContracts", "dependentActivities")),
			mcp.WithAny("value", mcp.Description("String for scalar fields, list of strings for contracts and dependents")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			recordID, err := req.RequireString("record_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			field, err := req.RequireString("field")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			record, err := svc.UpdateField(ctx, common.UpdateFieldRequest{
				RecordID: recordID,
				Field:    field,
				Value:    req.GetArguments()["value"],
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_field", record)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"sudsboard.set_validation",
			mcp.WithDescription("Record a reviewer decision on one activity record."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("Activity record identifier")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Decision"), mcp.Enum("pending", "validated", "rejected")),
			mcp.WithString("comment", mcp.Description("Reviewer comment")),
			mcp.WithString("validated_by", mcp.Description("Reviewer id; defaults to the caller")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			recordID, err := req.RequireString("record_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			record, err := svc.SetValidation(ctx, common.SetValidationRequest{
				RecordID:    recordID,
				Status:      status,
				Comment:     req.GetString("comment", ""),
				ValidatedBy: req.GetString("validated_by", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("set_validation", record)
		},
	)
}

// registerDraftTools registers the text drafting tools.
func registerDraftTools(srv *mcpserver.MCPServer, svc common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"sudsboard.draft_activity_analysis",
			mcp.WithDescription("Draft a comment for one activity record. Nothing is saved."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("Activity record identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			recordID, err := req.RequireString("record_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			draft, err := svc.DraftActivityAnalysis(ctx, recordID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("draft_activity_analysis", draft)
		},
	)
}

// jsonResult encodes one successful tool payload.
func jsonResult[T any](tool string, payload T) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// invalidRequestToolResult reports malformed tool arguments.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(common.CodeInvalidRequest + ": " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError(common.CodeInternal + ": unknown error")
	}
	_, code := common.Classify(err)
	if errors.Is(err, context.Canceled) {
		code = "canceled"
	}
	return mcp.NewToolResultError(code + ": " + err.Error())
}
