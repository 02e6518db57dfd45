package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"decisionmap/application/mapbuilder"
	querybus "decisionmap/application/queries/bus"
	queryhandlers "decisionmap/application/queries/handlers"
	"decisionmap/domain/catalog"
	"decisionmap/infrastructure/persistence/sqlite"
)

func connectInMemory(t *testing.T, ctx context.Context, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) (*sdkmcp.CallToolResult, string) {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return res, tc.Text
		}
	}
	t.Fatalf("no text content in %s result", name)
	return nil, ""
}

func newServer(t *testing.T, withHistory bool) *Server {
	t.Helper()
	logger := zap.NewNop()
	deps := mapbuilder.Dependencies{Logger: logger}
	var queries *querybus.QueryBus
	if withHistory {
		repo, err := sqlite.Open(":memory:", logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		deps.History = repo
		queries = querybus.NewQueryBus()
		require.NoError(t, queryhandlers.RegisterHistoryQueries(queries, repo, nil, 0, nil))
	}
	return NewServer(mapbuilder.NewService(deps), catalog.MustDefault(), queries, logger)
}

func exampleArgs() map[string]any {
	in := catalog.ExampleInput()
	options := make([]any, 0, len(in.Options))
	for _, o := range in.Options {
		options = append(options, map[string]any{"id": o.ID, "label": o.Label, "description": o.Description})
	}
	constraints := make([]any, 0, len(in.Constraints))
	for _, c := range in.Constraints {
		constraints = append(constraints, c)
	}
	return map[string]any{
		"domain":           in.Domain.String(),
		"title":            in.Title,
		"currentStateText": in.CurrentStateText,
		"options":          options,
		"constraints":      constraints,
	}
}

func TestServer(t *testing.T) {
	t.Run("Should advertise every tool", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))

		// Act
		res, err := session.ListTools(ctx, nil)

		// Assert
		require.NoError(t, err)
		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"build_map", "list_domains", "example_input", "hidden_rule_report"}, names)
	})

	t.Run("Should build a map from tool arguments", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))

		// Act
		res, text := callTool(t, ctx, session, "build_map", exampleArgs())

		// Assert
		require.False(t, res.IsError, text)
		var body struct {
			Map struct {
				Nodes []json.RawMessage `json:"nodes"`
			} `json:"map"`
			LLMUsed bool `json:"llmUsed"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &body))
		assert.NotEmpty(t, body.Map.Nodes)
		assert.False(t, body.LLMUsed)
	})

	t.Run("Should report validation failures as tool errors", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))
		args := exampleArgs()
		args["options"] = []any{map[string]any{"id": "A", "label": "Единственный вариант"}}

		// Act
		res, _ := callTool(t, ctx, session, "build_map", args)

		// Assert
		assert.True(t, res.IsError)
	})

	t.Run("Should list domains with template titles", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))

		// Act
		res, text := callTool(t, ctx, session, "list_domains", map[string]any{})

		// Assert
		require.False(t, res.IsError, text)
		var out listDomainsOutput
		require.NoError(t, json.Unmarshal([]byte(text), &out))
		assert.Len(t, out.Domains, len(catalog.MustDefault().Domains()))
	})

	t.Run("Should return the example input", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))

		// Act
		res, text := callTool(t, ctx, session, "example_input", map[string]any{})

		// Assert
		require.False(t, res.IsError, text)
		assert.Contains(t, text, catalog.ExampleInput().Title)
	})

	t.Run("Should refuse the report without history", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, false))

		// Act
		res, text := callTool(t, ctx, session, "hidden_rule_report", map[string]any{})

		// Assert
		assert.True(t, res.IsError)
		assert.Contains(t, text, "not configured")
	})

	t.Run("Should report over stored builds", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session := connectInMemory(t, ctx, newServer(t, true))
		built, text := callTool(t, ctx, session, "build_map", exampleArgs())
		require.False(t, built.IsError, text)

		// Act
		res, text := callTool(t, ctx, session, "hidden_rule_report", map[string]any{})

		// Assert
		require.False(t, res.IsError, text)
		var report struct {
			TotalRecords int `json:"totalRecords"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &report))
		assert.Equal(t, 1, report.TotalRecords)
	})
}
