package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	pkgerrors "decisionmap/pkg/errors"
)

func validInput() entities.DecisionInput {
	return entities.DecisionInput{
		Domain:           valueobjects.DomainHiring,
		Title:            "Нанять команду",
		CurrentStateText: "Команда из трёх человек не справляется.",
		Options: []entities.Option{
			{ID: "A", Label: "Нанять 6 инженеров"},
			{ID: "B", Label: "Подрядчики"},
		},
		Constraints: []string{"Бюджет ограничен"},
	}
}

func TestDecisionValidator_Validate(t *testing.T) {
	v := NewDecisionValidator(nil)

	t.Run("Should accept a well-formed decision", func(t *testing.T) {
		assert.NoError(t, v.Validate(validInput()))
	})

	tests := []struct {
		name     string
		mutate   func(*entities.DecisionInput)
		wantCode string
		field    string
	}{
		{
			name:     "Should reject a blank title",
			mutate:   func(in *entities.DecisionInput) { in.Title = "   " },
			wantCode: "DECISION_TITLE_REQUIRED",
			field:    "title",
		},
		{
			name: "Should reject when fewer than two options have a label",
			mutate: func(in *entities.DecisionInput) {
				in.Options[1].Label = " "
			},
			wantCode: "TOO_FEW_OPTIONS",
			field:    "options",
		},
		{
			name: "Should reject more than four options",
			mutate: func(in *entities.DecisionInput) {
				in.Options = append(in.Options,
					entities.Option{ID: "C", Label: "c"},
					entities.Option{ID: "D", Label: "d"},
					entities.Option{ID: "E", Label: "e"},
				)
			},
			wantCode: "TOO_MANY_OPTIONS",
			field:    "options",
		},
		{
			name:     "Should reject duplicate option ids",
			mutate:   func(in *entities.DecisionInput) { in.Options[1].ID = "A" },
			wantCode: "DUPLICATE_OPTION_ID",
			field:    "options[1].id",
		},
		{
			name:     "Should reject an unknown domain",
			mutate:   func(in *entities.DecisionInput) { in.Domain = "finance" },
			wantCode: "UNKNOWN_DOMAIN",
			field:    "domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			in := validInput()
			tt.mutate(&in)

			// Act
			err := v.Validate(in)

			// Assert
			require.Error(t, err)
			var verrs *pkgerrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.Has(tt.wantCode), "codes: %v", verrs.Error())
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}

	t.Run("Should report struct tag violations with json field names", func(t *testing.T) {
		in := validInput()
		in.Title = strings.Repeat("а", 301)

		err := v.Validate(in)

		var verrs *pkgerrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "title")
	})
}
