package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/outwriter"
	"github.com/thaafei/domainx/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	rules   contract.RuleProvider
}

func (h *toolHandler) handleListDomains(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domains, err := h.mgr.GetDomainStore().ListDomains(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing domains failed: %v", err)), nil
	}
	if domains == nil {
		domains = []schema.DomainSummary{}
	}
	return jsonResult(domains), nil
}

func (h *toolHandler) handleGetDomainRanking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	id, err := request.RequireString("domain_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("domain_id is required"), nil
	}
	cfg.DomainID = id

	if l := request.GetInt("limit", 0); l != 0 {
		if l < 0 || l > contract.MaxResultLimit {
			return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", contract.MaxResultLimit)), nil
		}
		cfg.ResultLimit = l
	}
	if p := request.GetString("numeric_unranged", ""); p != "" {
		policy := schema.NumericPolicy(p)
		if _, ok := schema.ValidNumericPolicies[policy]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid numeric_unranged policy %q", p)), nil
		}
		cfg.NumericUnranged = policy
	}

	report, err := core.GetDomainRanking(ctx, cfg, h.mgr, h.rules)
	if err != nil {
		return toolError("ranking failed", err), nil
	}
	return jsonResult(outwriter.NewJSONRanking(report, cfg.Precision)), nil
}

func (h *toolHandler) handleGetCategoryWeights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("domain_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("domain_id is required"), nil
	}

	weights, source, err := core.GetEffectiveWeights(ctx, h.mgr.GetDomainStore(), id, algo.Options{Unranged: h.baseCfg.NumericUnranged})
	if err != nil {
		return toolError("reading weights failed", err), nil
	}
	return jsonResult(map[string]any{
		"domain_id":     id,
		"weights":       weights,
		"weight_source": source,
	}), nil
}

func (h *toolHandler) handleSetCategoryWeights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("domain_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("domain_id is required"), nil
	}

	raw, ok := request.GetArguments()["weights"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("weights must be an object of category to number"), nil
	}
	weights := make(map[string]float64, len(raw))
	for cat, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("weight of %q must be a number", cat)), nil
		}
		weights[cat] = f
	}

	opts := algo.Options{Unranged: h.baseCfg.NumericUnranged}
	if err := core.SaveCategoryWeights(ctx, h.mgr.GetDomainStore(), id, weights, opts); err != nil {
		return toolError("saving weights failed", err), nil
	}
	return jsonResult(map[string]any{
		"domain_id":     id,
		"weights":       weights,
		"weight_source": schema.StoredWeights,
	}), nil
}

func (h *toolHandler) handleGetValuesTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("domain_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("domain_id is required"), nil
	}

	snap, err := h.mgr.GetDomainStore().LoadDomainSnapshot(ctx, id)
	if err != nil {
		return toolError("loading values failed", err), nil
	}
	return jsonResult(schema.BuildValuesTable(snap)), nil
}

// toolError reports a failed tool call. Unknown domains get a short message of their own.
func toolError(prefix string, err error) *mcp.CallToolResult {
	if errors.Is(err, contract.ErrDomainNotFound) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}
