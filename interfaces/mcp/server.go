// Package mcp exposes map building as Model Context Protocol tools so an
// assistant can build and inspect decision maps without the HTTP API.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"decisionmap/application/mapbuilder"
	"decisionmap/application/queries"
	querybus "decisionmap/application/queries/bus"
	"decisionmap/domain/catalog"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	pkgerrors "decisionmap/pkg/errors"
)

// Version is reported to MCP clients
const Version = "v2"

// Builder builds one decision map
type Builder interface {
	Build(ctx context.Context, in entities.DecisionInput) (mapbuilder.BuildResult, error)
}

// Server wraps the MCP SDK server
type Server struct {
	MCPServer *sdkmcp.Server

	builder  Builder
	catalog  *catalog.Catalog
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewServer registers the decision map tools. A nil queryBus leaves the
// history report tool answering ErrHistoryDisabled.
func NewServer(builder Builder, cat *catalog.Catalog, queryBus *querybus.QueryBus, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		builder:  builder,
		catalog:  cat,
		queryBus: queryBus,
		logger:   logger,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "decisionmap", Version: Version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is done
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "build_map",
		Description: "Build the future-states map of a decision: options, their consequences, where trajectories converge and which options lock in.",
	}, s.handleBuildMap)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_domains",
		Description: "List the decision domains and the consequence templates each one offers.",
	}, s.handleListDomains)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "example_input",
		Description: "Return a complete example decision accepted by build_map.",
	}, s.handleExampleInput)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "hidden_rule_report",
		Description: "Summarize recurring convergence patterns across stored decisions. Requires history.",
	}, s.handleHiddenRuleReport)
}

type optionInput struct {
	ID          string `json:"id" jsonschema:"short option id such as A or B"`
	Label       string `json:"label" jsonschema:"option name"`
	Description string `json:"description,omitempty" jsonschema:"what the option involves"`
}

type buildMapInput struct {
	Domain           string        `json:"domain" jsonschema:"decision domain: product, architecture, data, hiring, pricing, market or custom"`
	Title            string        `json:"title,omitempty" jsonschema:"decision title"`
	CurrentStateText string        `json:"currentStateText,omitempty" jsonschema:"the situation today"`
	Options          []optionInput `json:"options" jsonschema:"two to five alternatives"`
	Constraints      []string      `json:"constraints,omitempty" jsonschema:"hard limits such as budget or deadlines"`
}

func (in buildMapInput) decision() entities.DecisionInput {
	out := entities.DecisionInput{
		Domain:           valueobjects.DecisionDomain(in.Domain),
		Title:            in.Title,
		CurrentStateText: in.CurrentStateText,
		Constraints:      in.Constraints,
	}
	for _, o := range in.Options {
		out.Options = append(out.Options, entities.Option{ID: o.ID, Label: o.Label, Description: o.Description})
	}
	return out
}

type emptyInput struct{}

type domainOutput struct {
	ID        string   `json:"id"`
	Templates []string `json:"templates"`
}

type listDomainsOutput struct {
	Domains []domainOutput `json:"domains"`
}

func (s *Server) handleBuildMap(ctx context.Context, _ *sdkmcp.CallToolRequest, input buildMapInput) (*sdkmcp.CallToolResult, any, error) {
	result, err := s.builder.Build(ctx, input.decision())
	if err != nil {
		if !pkgerrors.IsValidation(err) {
			s.logger.Error("MCP build failed", zap.Error(err))
		}
		return nil, nil, err
	}
	return nil, result, nil
}

func (s *Server) handleListDomains(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, listDomainsOutput, error) {
	var out listDomainsOutput
	for _, d := range s.catalog.Domains() {
		titles := []string{}
		for _, t := range s.catalog.Templates(d) {
			titles = append(titles, t.Title)
		}
		out.Domains = append(out.Domains, domainOutput{ID: d.String(), Templates: titles})
	}
	return nil, out, nil
}

func (s *Server) handleExampleInput(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
	return nil, catalog.ExampleInput(), nil
}

func (s *Server) handleHiddenRuleReport(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
	if s.queryBus == nil {
		return nil, nil, pkgerrors.ErrHistoryDisabled
	}
	report, err := s.queryBus.Ask(ctx, queries.HiddenRuleReportQuery{})
	if err != nil {
		return nil, nil, err
	}
	return nil, report, nil
}
