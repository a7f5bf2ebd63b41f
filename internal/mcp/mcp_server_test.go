package mcp_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/bundle"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/iocache"
	mcp_internal "github.com/thaafei/domainx/internal/mcp"
	"github.com/thaafei/domainx/internal/rules"
	"github.com/thaafei/domainx/schema"
)

// newTestServer seeds an in-memory store with the web frameworks bundle.
func newTestServer(t *testing.T) (*server.MCPServer, string) {
	t.Helper()
	store, err := iocache.NewDomainStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	b, err := bundle.ReadFile(filepath.Join("..", "bundle", "testdata", "web_frameworks.yaml"))
	require.NoError(t, err)
	result, err := bundle.Import(context.Background(), store, b, algo.Options{})
	require.NoError(t, err)

	provider, err := rules.Load("")
	require.NoError(t, err)

	baseCfg := &contract.Config{Precision: 4, Workers: 1, NumericUnranged: schema.PassThroughNumeric}
	mgr := iocache.NewStoreManager(store, nil, nil)
	return mcp_internal.NewMCPServer(baseCfg, mgr, provider), result.Domain.ID
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res, res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("get_domain_ranking missing domain_id", func(t *testing.T) {
		res, text := callTool(t, s, "get_domain_ranking", map[string]any{})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text, "domain_id is required")
	})

	t.Run("get_domain_ranking unknown domain", func(t *testing.T) {
		res, text := callTool(t, s, "get_domain_ranking", map[string]any{"domain_id": "nope"})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "domain not found")
	})

	t.Run("get_domain_ranking bad limit", func(t *testing.T) {
		res, text := callTool(t, s, "get_domain_ranking", map[string]any{"domain_id": "x", "limit": -1.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "limit must be between")
	})

	t.Run("get_domain_ranking bad policy", func(t *testing.T) {
		res, text := callTool(t, s, "get_domain_ranking", map[string]any{"domain_id": "x", "numeric_unranged": "guess"})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "invalid numeric_unranged policy")
	})

	t.Run("set_category_weights non numeric", func(t *testing.T) {
		res, text := callTool(t, s, "set_category_weights", map[string]any{
			"domain_id": "x",
			"weights":   map[string]any{"Quality": "high"},
		})
		assert.True(t, res.IsError)
		assert.Contains(t, text, `weight of "Quality" must be a number`)
	})
}

func TestMCPServerRanking(t *testing.T) {
	s, domainID := newTestServer(t)

	res, text := callTool(t, s, "get_domain_ranking", map[string]any{"domain_id": domainID, "limit": 2.0})
	require.False(t, res.IsError, text)

	var out struct {
		Domain        string             `json:"domain"`
		GlobalRanking map[string]float64 `json:"global_ranking"`
		Ranked        []struct {
			LibraryName string `json:"library_name"`
			Label       string `json:"label"`
		} `json:"ranked"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "Web Frameworks", out.Domain)
	assert.Len(t, out.GlobalRanking, 3)
	require.Len(t, out.Ranked, 2)
	assert.Equal(t, "gin", out.Ranked[0].LibraryName)
	assert.Equal(t, 0.84, out.GlobalRanking["gin"])
}

func TestMCPServerListDomains(t *testing.T) {
	s, domainID := newTestServer(t)

	res, text := callTool(t, s, "list_domains", nil)
	require.False(t, res.IsError, text)

	var domains []schema.DomainSummary
	require.NoError(t, json.Unmarshal([]byte(text), &domains))
	require.Len(t, domains, 1)
	assert.Equal(t, domainID, domains[0].ID)
	assert.Equal(t, 3, domains[0].LibraryCount)
}

func TestMCPServerWeights(t *testing.T) {
	s, domainID := newTestServer(t)

	_, text := callTool(t, s, "get_category_weights", map[string]any{"domain_id": domainID})
	assert.Contains(t, text, `"weight_source": "stored"`)

	res, text := callTool(t, s, "set_category_weights", map[string]any{
		"domain_id": domainID,
		"weights":   map[string]any{"Popularity": 0.5},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "saving weights failed")

	res, text = callTool(t, s, "set_category_weights", map[string]any{
		"domain_id": domainID,
		"weights":   map[string]any{"Popularity": 0.5, "Quality": 0.5},
	})
	require.False(t, res.IsError, text)

	_, text = callTool(t, s, "get_category_weights", map[string]any{"domain_id": domainID})
	var out struct {
		Weights map[string]float64 `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, map[string]float64{"Popularity": 0.5, "Quality": 0.5}, out.Weights)
}

func TestMCPServerValuesTable(t *testing.T) {
	s, domainID := newTestServer(t)

	res, text := callTool(t, s, "get_values_table", map[string]any{"domain_id": domainID})
	require.False(t, res.IsError, text)

	var grid schema.ValuesTable
	require.NoError(t, json.Unmarshal([]byte(text), &grid))
	assert.Len(t, grid.Metrics, 4)
	assert.Len(t, grid.Rows, 3)
}
