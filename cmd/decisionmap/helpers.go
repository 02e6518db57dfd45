package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"decisionmap/domain/core/entities"
	"decisionmap/infrastructure/config"
	"decisionmap/infrastructure/di"
)

// loadContainer wires the application from the environment
func loadContainer(ctx context.Context, mutate func(*config.Config)) (*di.Container, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return container, func() {
		cleanup()
		_ = container.Logger.Sync()
	}, nil
}

// readInput decodes a decision from path, or stdin when path is "-"
func readInput(path string, stdin io.Reader) (entities.DecisionInput, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return entities.DecisionInput{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var in entities.DecisionInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return entities.DecisionInput{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
