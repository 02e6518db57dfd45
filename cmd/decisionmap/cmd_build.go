package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"decisionmap/pkg/share"
)

var buildFlags struct {
	input    string
	pretty   bool
	share    bool
	optionID string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the map of a decision read from a JSON file",
	RunE:  runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildFlags.input, "file", "f", "-", "Decision JSON file, - for stdin")
	f.BoolVar(&buildFlags.pretty, "pretty", false, "Indent the JSON output")
	f.BoolVar(&buildFlags.share, "share", false, "Print a share token instead of the map")
	f.StringVar(&buildFlags.optionID, "option", "", "Option highlighted by the share token (default: best for options preserved)")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	in, err := readInput(buildFlags.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	container, cleanup, err := loadContainer(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := container.Service.Build(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	out := cmd.OutOrStdout()
	if !buildFlags.share {
		return writeJSON(out, result, buildFlags.pretty)
	}

	payload, err := share.NewPayload(in, result.Map, buildFlags.optionID, time.Now())
	if err != nil {
		return err
	}
	token, err := container.ShareCodec.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode share token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
