package main

import (
	"github.com/spf13/cobra"

	"decisionmap/domain/catalog"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example decision accepted by build",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeJSON(cmd.OutOrStdout(), catalog.ExampleInput(), true)
	},
}
