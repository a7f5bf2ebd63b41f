// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/thaafei/domainx/internal/contract"
)

// NewMCPServer initializes and configures the DomainX MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) *server.MCPServer {
	s := server.NewMCPServer(
		"DomainX Ranking Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		rules:   rules,
	}

	// --- 1. Tool: list_domains ---
	s.AddTool(mcp.NewTool("list_domains",
		mcp.WithDescription("List every domain with its library and metric counts."),
	), h.handleListDomains)

	// --- 2. Tool: get_domain_ranking ---
	s.AddTool(mcp.NewTool("get_domain_ranking",
		mcp.WithDescription("Rank the libraries of a domain with the weighted category model."),
		mcp.WithString("domain_id", mcp.Description("ID of the domain to rank."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked libraries returned.")),
		mcp.WithString("numeric_unranged", mcp.Description("Policy for numeric metrics without a range."), mcp.Enum("passthrough", "exclude")),
	), h.handleGetDomainRanking)

	// --- 3. Tool: get_category_weights ---
	s.AddTool(mcp.NewTool("get_category_weights",
		mcp.WithDescription("Show the category weights a ranking of the domain would use and where they come from."),
		mcp.WithString("domain_id", mcp.Description("ID of the domain."), mcp.Required()),
	), h.handleGetCategoryWeights)

	// --- 4. Tool: set_category_weights ---
	s.AddTool(mcp.NewTool("set_category_weights",
		mcp.WithDescription("Replace the stored category weights of a domain. Weights must cover every active category and sum to 1."),
		mcp.WithString("domain_id", mcp.Description("ID of the domain."), mcp.Required()),
		mcp.WithObject("weights", mcp.Description("Map of category name to weight."), mcp.Required()),
	), h.handleSetCategoryWeights)

	// --- 5. Tool: get_values_table ---
	s.AddTool(mcp.NewTool("get_values_table",
		mcp.WithDescription("Return the raw metric values of a domain as a library by metric grid."),
		mcp.WithString("domain_id", mcp.Description("ID of the domain."), mcp.Required()),
	), h.handleGetValuesTable)

	return s
}

// StartMCPServer starts the DomainX MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, rules contract.RuleProvider) error {
	s := NewMCPServer(baseCfg, mgr, rules)
	return server.ServeStdio(s)
}
