package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/domain/catalog"
	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/domain/synthesis"
)

func hiringInput() entities.DecisionInput {
	return entities.DecisionInput{
		Domain: valueobjects.DomainHiring,
		Title:  "Нанять первого сотрудника",
		Options: []entities.Option{
			{ID: "A", Label: "Нанять в штат"},
			{ID: "B", Label: "Подрядчик"},
			{ID: "C", Label: "Подождать"},
		},
		Constraints: []string{},
	}
}

func synthesize(t *testing.T, in entities.DecisionInput) *aggregates.DecisionMap {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return synthesis.NewSynthesizer(cat, nil).Synthesize(in)
}

func scoreByID(scores []OptionScore) map[string]OptionScore {
	out := make(map[string]OptionScore, len(scores))
	for _, s := range scores {
		out[s.OptionID] = s
	}
	return out
}

func TestScorer_HiringScenario(t *testing.T) {
	// Arrange
	in := hiringInput()
	m := synthesize(t, in)
	scorer := NewScorer(nil)

	// Act
	scores := scoreByID(scorer.Score(m, in, nil))

	// Assert
	assert.Equal(t, 16, m.Summary.TotalFutureStates)

	t.Run("Should compute loss of optionality per option", func(t *testing.T) {
		assert.Equal(t, 56, scores["A"].Metrics.OptionLossPct)
		assert.Equal(t, 63, scores["B"].Metrics.OptionLossPct)
		assert.Equal(t, 56, scores["C"].Metrics.OptionLossPct)
	})

	t.Run("Should sum tag weights on the axes", func(t *testing.T) {
		a := scores["A"].Metrics
		assert.Equal(t, []int{78, 100, 100, 84, 90}, []int{a.F, a.T, a.O, a.S, a.IrreversibilityScore})
		b := scores["B"].Metrics
		assert.Equal(t, []int{50, 78, 100, 66, 74}, []int{b.F, b.T, b.O, b.S, b.IrreversibilityScore})
		c := scores["C"].Metrics
		assert.Equal(t, []int{78, 90, 100, 100, 94}, []int{c.F, c.T, c.O, c.S, c.IrreversibilityScore})
	})

	t.Run("Should list every unreachable outcome as a closed future", func(t *testing.T) {
		assert.Len(t, scores["A"].ClosedFutures, 16-7)
		assert.Len(t, scores["B"].ClosedFutures, 16-6)
		for _, cf := range scores["A"].ClosedFutures {
			require.Len(t, cf.RelatedNodeIDs, 1)
			assert.NotEqual(t, "A", func() string { n, _ := m.Node(cf.RelatedNodeIDs[0]); return n.OptionID }())
		}
	})

	t.Run("Should broadcast metrics to every edge of the option", func(t *testing.T) {
		for _, e := range m.Edges {
			assert.Equal(t, scores[e.OptionID].Metrics, e.Metrics, "edge %s", e.ID)
			assert.NotNil(t, e.ClosedFutures)
			assert.NotNil(t, e.Evidence)
		}
	})

	t.Run("Should flag a point of no return from hiring_lock tags", func(t *testing.T) {
		for _, s := range scores {
			assert.True(t, s.Metrics.PNRFlag)
			assert.Equal(t, PNRFixedText, s.Metrics.PNRText)
		}
	})

	t.Run("Should grade confidence low without context", func(t *testing.T) {
		assert.Equal(t, entities.ConfidenceLow, scores["A"].Metrics.Confidence)
	})
}

func TestScorer_SignalFloors(t *testing.T) {
	in := hiringInput()
	m := synthesize(t, in)
	extracted := &entities.ExtractedDecision{
		IrreversibilitySignals: entities.IrreversibilitySignals{
			Financial: []string{"кредит"},
		},
	}
	extracted.Normalize()

	scores := scoreByID(NewScorer(nil).Score(m, in, extracted))

	t.Run("Should lift a weak axis to the signal floor", func(t *testing.T) {
		assert.Equal(t, 55, scores["B"].Metrics.F)
	})

	t.Run("Should not lower an axis above the floor", func(t *testing.T) {
		assert.Equal(t, 78, scores["A"].Metrics.F)
		assert.Equal(t, 66, scores["B"].Metrics.S)
	})
}

func TestLossPct(t *testing.T) {
	tests := []struct {
		name      string
		reachable int
		total     int
		expected  int
	}{
		{"Should return zero for an empty graph", 0, 0, 0},
		{"Should return 100 when nothing is reachable", 0, 10, 100},
		{"Should return zero when everything is reachable", 10, 10, 0},
		{"Should round 56.25 down", 7, 16, 56},
		{"Should round 62.5 half up", 6, 16, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LossPct(tt.reachable, tt.total))
		})
	}
}

func TestPointOfNoReturn(t *testing.T) {
	t.Run("Should prefer an extracted trigger", func(t *testing.T) {
		extracted := &entities.ExtractedDecision{}
		extracted.IrreversibilitySignals.PNRCandidates = []entities.PNRCandidate{
			{Trigger: ""},
			{Trigger: "Подписание аренды на 5 лет"},
		}

		flag, text := PointOfNoReturn(entities.DecisionInput{}, nil, extracted)

		assert.True(t, flag)
		assert.Equal(t, "Подписание аренды на 5 лет", text)
	})

	t.Run("Should match keywords case-insensitively", func(t *testing.T) {
		in := entities.DecisionInput{CurrentStateText: "Готовим КОНТРАКТ с поставщиком"}

		flag, text := PointOfNoReturn(in, nil, nil)

		assert.True(t, flag)
		assert.Equal(t, PNRFixedText, text)
	})

	t.Run("Should match keywords in constraints", func(t *testing.T) {
		in := entities.DecisionInput{Constraints: []string{"договор на 3 года"}}

		flag, _ := PointOfNoReturn(in, nil, nil)

		assert.True(t, flag)
	})

	t.Run("Should stay open without signals", func(t *testing.T) {
		in := entities.DecisionInput{CurrentStateText: "Пробуем новый канал"}
		tags := valueobjects.TagSet{valueobjects.TagSpeedHigh}

		flag, text := PointOfNoReturn(in, tags, nil)

		assert.False(t, flag)
		assert.Equal(t, PNROpenText, text)
	})
}

func TestScorer_Confidence(t *testing.T) {
	scorer := NewScorer(nil)
	tests := []struct {
		name     string
		input    entities.DecisionInput
		expected entities.Confidence
	}{
		{
			name:     "Should be high with context and two constraints",
			input:    entities.DecisionInput{CurrentStateText: "есть", Constraints: []string{"a", "b"}},
			expected: entities.ConfidenceHigh,
		},
		{
			name: "Should be high with context and an option description",
			input: entities.DecisionInput{
				CurrentStateText: "есть",
				Options:          []entities.Option{{ID: "A", Label: "x", Description: "подробно"}},
			},
			expected: entities.ConfidenceHigh,
		},
		{
			name:     "Should be medium with context only",
			input:    entities.DecisionInput{CurrentStateText: "есть", Constraints: []string{"a", " "}},
			expected: entities.ConfidenceMedium,
		},
		{
			name:     "Should be medium with constraints only",
			input:    entities.DecisionInput{Constraints: []string{"a", "b"}},
			expected: entities.ConfidenceMedium,
		},
		{
			name:     "Should be low with nothing",
			input:    entities.DecisionInput{CurrentStateText: "   "},
			expected: entities.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.Confidence(tt.input))
		})
	}
}

func TestScorer_Evidence(t *testing.T) {
	scorer := NewScorer(nil)
	in := entities.DecisionInput{
		CurrentStateText: "Команда из трёх человек",
		Constraints:      []string{"Бюджет 2 млн", "", "Срок квартал"},
		Options: []entities.Option{
			{ID: "A", Label: "Нанять"},
			{ID: "B", Label: "Подрядчик"},
			{ID: "C", Label: "Подождать"},
		},
	}

	t.Run("Should build evidence from the input", func(t *testing.T) {
		assert.Equal(t, []string{
			"Контекст: Команда из трёх человек",
			"Ограничение: Бюджет 2 млн",
			"Вариант: Нанять",
			"Вариант: Подрядчик",
		}, scorer.Evidence(in, nil))
	})

	t.Run("Should merge extracted evidence with constraints", func(t *testing.T) {
		extracted := &entities.ExtractedDecision{Evidence: []string{" Ограничение: Бюджет 2 млн ", "Штат растёт"}}

		assert.Equal(t, []string{
			"Ограничение: Бюджет 2 млн",
			"Штат растёт",
			"Ограничение: Срок квартал",
		}, scorer.Evidence(in, extracted))
	})
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		tags     valueobjects.TagSet
		expected entities.ClosedCategory
	}{
		{"Should prefer org tags", "Бюджет", valueobjects.TagSet{valueobjects.TagFixedCost, valueobjects.TagHiringLock}, entities.CategoryOrg},
		{"Should map cost tags to budget", "Что угодно", valueobjects.TagSet{valueobjects.TagInfraContracts}, entities.CategoryBudget},
		{"Should fall back to title keywords", "Новые процессы", nil, entities.CategoryOrg},
		{"Should default to strategy", "Выход на рынок", valueobjects.TagSet{valueobjects.TagVendorLockin}, entities.CategoryStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.title, tt.tags))
		})
	}
}

func TestTagsFromTitle(t *testing.T) {
	tags := TagsFromTitle("Контракт с платформой и рост команды")

	assert.Equal(t, valueobjects.TagSet{valueobjects.TagVendorLockin, valueobjects.TagHiringLock}, tags)
}

func TestRank(t *testing.T) {
	t.Run("Should pick the first lowest loss as best and the last highest as worst", func(t *testing.T) {
		// Arrange
		in := hiringInput()
		m := synthesize(t, in)
		NewScorer(nil).Score(m, in, nil)

		// Act
		Rank(m)

		// Assert
		assert.Equal(t, 16, m.Summary.TotalFutureStates)
		assert.Equal(t, "A", m.Summary.BestForOptionsPreserved)
		assert.Equal(t, "B", m.Summary.WorstLockIn)
	})

	t.Run("Should keep input order when every loss ties", func(t *testing.T) {
		m := aggregates.NewDecisionMap()
		for _, id := range []string{"X", "Y"} {
			e := entities.NewMapEdge(entities.CurrentNodeID, id+"-future-1", id)
			e.Metrics.OptionLossPct = 40
			m.AddEdge(e)
		}

		Rank(m)

		assert.Equal(t, "X", m.Summary.BestForOptionsPreserved)
		assert.Equal(t, "Y", m.Summary.WorstLockIn)
	})

	t.Run("Should leave an empty map unranked", func(t *testing.T) {
		m := aggregates.NewDecisionMap()

		Rank(m)

		assert.Empty(t, m.Summary.BestForOptionsPreserved)
		assert.Zero(t, m.Summary.TotalFutureStates)
	})
}
