package main

import (
	"github.com/spf13/cobra"

	querybus "decisionmap/application/queries/bus"
	"decisionmap/infrastructure/config"
	mcpserver "decisionmap/interfaces/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing build_map, list_domains,
example_input and hidden_rule_report. Logs go to stderr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	container, cleanup, err := loadContainer(cmd.Context(), func(cfg *config.Config) {
		// stdout carries the protocol
		cfg.LogLevel = "warn"
	})
	if err != nil {
		return err
	}
	defer cleanup()

	var queries *querybus.QueryBus
	if container.Service.HistoryEnabled() {
		queries = container.QueryBus
	}
	srv := mcpserver.NewServer(container.Service, container.Catalog, queries, container.Logger)
	return srv.Run(cmd.Context())
}
