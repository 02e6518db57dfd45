package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisionmap/domain/catalog"
	"decisionmap/domain/core/entities"
	"decisionmap/domain/core/valueobjects"
	"decisionmap/domain/scoring"
	"decisionmap/domain/synthesis"
)

func TestSummarizeMap(t *testing.T) {
	// Arrange
	in := entities.DecisionInput{
		Domain:      valueobjects.DomainHiring,
		Title:       "Нанять первого сотрудника",
		Options:     []entities.Option{{ID: "A", Label: "Нанять в штат"}, {ID: "B", Label: "Подрядчик"}, {ID: "C", Label: "Подождать"}},
		Constraints: []string{},
	}
	cat, err := catalog.Default()
	require.NoError(t, err)
	m := synthesis.NewSynthesizer(cat, nil).Synthesize(in)
	scoring.NewScorer(nil).Score(m, in, nil)

	// Act
	summary := SummarizeMap(m)

	// Assert
	require.Len(t, summary.Options, 3)
	a, ok := summary.Option("A")
	require.True(t, ok)
	assert.Equal(t, 56, a.OptionLossPct)
	assert.Equal(t, 90, a.Irreversibility)
	assert.True(t, a.PNR)
	assert.Equal(t, []string{"org_inertia", "long_timeline", "fixed_cost", "hiring_lock", "process_change"}, a.TopTags)

	t.Run("Should pick the first option with the highest loss as worst", func(t *testing.T) {
		worst, ok := summary.Worst()
		require.True(t, ok)
		assert.Equal(t, "B", worst.OptionID)
	})

	t.Run("Should build a record with a display title", func(t *testing.T) {
		in.Title = " "
		rec := NewDecisionRecord("rec-1", time.Unix(100, 0), in, m)
		assert.Equal(t, "Текущее состояние", rec.Title)
		assert.Equal(t, "hiring", rec.Domain)
		assert.Equal(t, summary, rec.Summary)
	})
}

func record(id, title string, loss, irr int, pnr bool, tags ...string) DecisionRecord {
	return DecisionRecord{
		ID:        id,
		Title:     title,
		CreatedAt: time.Unix(1000, 0).UTC(),
		Summary: RecordSummary{Options: []OptionSummary{
			{OptionID: "A", OptionLossPct: loss, Irreversibility: irr, PNR: pnr, TopTags: tags},
			{OptionID: "B", OptionLossPct: loss - 20, Irreversibility: irr, TopTags: []string{"speed_high"}},
		}},
	}
}

func TestGenerateHiddenRuleReport(t *testing.T) {
	// Arrange
	records := []DecisionRecord{
		record("r1", "R1", 70, 80, true, "hiring_lock", "org_inertia"),
		record("r2", "R2", 50, 60, false, "org_inertia", "fixed_cost"),
		record("r3", "R3", 30, 40, false, "vendor_lockin"),
	}
	now := time.Unix(2000, 0)

	// Act
	report := GenerateHiddenRuleReport(records, now)

	// Assert
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, now.UTC(), report.GeneratedAt)
	require.Len(t, report.Rules, 1)

	rule := report.Rules[0]
	t.Run("Should keep only clusters seen in at least two records", func(t *testing.T) {
		assert.Equal(t, "org_lock", rule.ID)
		assert.Equal(t, []string{"hiring_lock", "org_inertia"}, rule.Tags)
		require.Len(t, rule.Evidence.Records, 2)
		assert.Equal(t, "r1", rule.Evidence.Records[0].RecordID)
		assert.Equal(t, "A", rule.Evidence.Records[0].OptionID)
	})

	t.Run("Should average the worst option metrics", func(t *testing.T) {
		assert.Equal(t, RuleImpact{AvgOptionLossPct: 60, AvgIrreversibility: 70, PNRRate: 0.5}, rule.Impact)
		assert.Equal(t, ConfidenceMedium, rule.Confidence)
	})

	t.Run("Should describe indicators and examples", func(t *testing.T) {
		assert.Equal(t, []string{
			"закрепление найма/штата",
			"организационная инерция",
			"высокая потеря опциональности",
			"высокая необратимость",
			"часто встречается точка невозврата",
		}, rule.Evidence.Indicators)
		assert.Equal(t, []string{
			"В «R1» повторяется: закрепление найма/штата (потеря 70%, необратимость 80%).",
			"В «R2» повторяется: организационная инерция (потеря 50%, необратимость 60%).",
		}, rule.Evidence.Examples)
	})

	t.Run("Should compute overall meta", func(t *testing.T) {
		assert.Equal(t, []TagCount{
			{Tag: "org_inertia", Count: 2},
			{Tag: "hiring_lock", Count: 1},
			{Tag: "fixed_cost", Count: 1},
			{Tag: "vendor_lockin", Count: 1},
		}, report.Meta.TopTagsOverall)
		assert.Equal(t, 50, report.Meta.AvgOptionLossOverall)
		assert.Equal(t, 60, report.Meta.AvgIrreversibilityOverall)
		assert.InDelta(t, 1.0/3, report.Meta.PNROverallRate, 1e-9)
	})
}

func TestGenerateHiddenRuleReport_LargeHistory(t *testing.T) {
	records := []DecisionRecord{
		record("r1", "R1", 90, 90, true, "vendor_lockin"),
		record("r2", "R2", 90, 90, true, "vendor_lockin"),
		record("r3", "R3", 40, 40, false, "hiring_lock"),
		record("r4", "R4", 40, 40, false, "hiring_lock"),
		record("r5", "R5", 40, 40, false, "hiring_lock"),
		record("r6", "R6", 40, 40, false, "long_timeline"),
	}

	report := GenerateHiddenRuleReport(records, time.Now())

	t.Run("Should require three matches once six records exist", func(t *testing.T) {
		require.Len(t, report.Rules, 1)
		assert.Equal(t, "org_lock", report.Rules[0].ID)
		assert.Equal(t, ConfidenceMedium, report.Rules[0].Confidence)
	})
}

func TestGenerateHiddenRuleReport_Empty(t *testing.T) {
	report := GenerateHiddenRuleReport(nil, time.Now())

	assert.Zero(t, report.TotalRecords)
	assert.Empty(t, report.Rules)
	assert.NotNil(t, report.Meta.TopTagsOverall)
	assert.Zero(t, report.Meta.PNROverallRate)
}

func TestRuleConfidence(t *testing.T) {
	tests := []struct {
		name     string
		coverage int
		impact   RuleImpact
		expected string
	}{
		{"Should be high with four records", 4, RuleImpact{}, ConfidenceHigh},
		{"Should be high with three records and high impact", 3, RuleImpact{AvgOptionLossPct: 65}, ConfidenceHigh},
		{"Should be medium with three records and low impact", 3, RuleImpact{}, ConfidenceMedium},
		{"Should be medium with two records and high impact", 2, RuleImpact{AvgIrreversibility: 70}, ConfidenceMedium},
		{"Should be low with two records and low impact", 2, RuleImpact{AvgOptionLossPct: 64}, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ruleConfidence(tt.coverage, tt.impact))
		})
	}
}
