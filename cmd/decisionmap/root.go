// decisionmap builds decision maps from the command line, serves the HTTP
// API, or runs as an MCP server over stdio.
//
// Usage:
//
//	decisionmap build -f decision.json [--share]
//	decisionmap example
//	decisionmap serve [--addr=:8080]
//	decisionmap mcp
//	decisionmap report
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "decisionmap",
	Short: "Map where the options of a decision lead",
	Long: "decisionmap turns a decision (current state, options, constraints) into a graph of\n" +
		"future states, scoring how much each option keeps open and where options converge.\n" +
		"Configuration comes from the same environment variables and CONFIG_FILE as the API.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
