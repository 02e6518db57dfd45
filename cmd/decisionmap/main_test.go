package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/domain/catalog"
	"decisionmap/domain/core/entities"
)

func TestReadInput(t *testing.T) {
	t.Run("Should read a decision from stdin", func(t *testing.T) {
		// Arrange
		stdin := strings.NewReader(`{"domain":"data","title":"T","options":[{"id":"A","label":"a"}]}`)

		// Act
		in, err := readInput("-", stdin)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "data", in.Domain.String())
		require.Len(t, in.Options, 1)
		assert.Equal(t, "a", in.Options[0].Label)
	})

	t.Run("Should read a decision from a file", func(t *testing.T) {
		// Arrange
		path := filepath.Join(t.TempDir(), "decision.json")
		data, err := json.Marshal(catalog.ExampleInput())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		// Act
		in, err := readInput(path, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, catalog.ExampleInput(), in)
	})

	t.Run("Should fail on malformed JSON", func(t *testing.T) {
		// Act
		_, err := readInput("-", strings.NewReader("{"))

		// Assert
		assert.ErrorContains(t, err, "decode input")
	})
}

func TestExampleCommand(t *testing.T) {
	t.Run("Should print an example that decodes back", func(t *testing.T) {
		// Arrange
		var out bytes.Buffer
		exampleCmd.SetOut(&out)

		// Act
		err := exampleCmd.RunE(exampleCmd, nil)

		// Assert
		require.NoError(t, err)
		var in entities.DecisionInput
		require.NoError(t, json.Unmarshal(out.Bytes(), &in))
		assert.Equal(t, catalog.ExampleInput().Title, in.Title)
	})
}
