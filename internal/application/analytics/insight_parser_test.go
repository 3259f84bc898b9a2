package analytics

import (
	"testing"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInsights_Structured(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantInsight []string
		wantActions []string
		wantImpact  string
	}{
		{
			name:        "plain json",
			text:        `{"insights": ["Spend rose 12%"], "actions": ["Review supplier B"], "impact": "Lower stockouts"}`,
			wantInsight: []string{"Spend rose 12%"},
			wantActions: []string{"Review supplier B"},
			wantImpact:  "Lower stockouts",
		},
		{
			name: "json inside a fenced block",
			text: "Here you go:\n```json\n{\"key_insights\": [\"Two items out of stock\"], \"recommendations\": [\"Reorder m1\"], \"expected_impact\": \"Fewer lost sales\"}\n```",
			wantInsight: []string{"Two items out of stock"},
			wantActions: []string{"Reorder m1"},
			wantImpact:  "Fewer lost sales",
		},
		{
			name:        "blank items are dropped",
			text:        `{"insights": ["  ", "On-time rate is 80%"], "recommended_actions": ["Escalate late deliveries"]}`,
			wantInsight: []string{"On-time rate is 80%"},
			wantActions: []string{"Escalate late deliveries"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ParseInsights(tt.text)
			require.True(t, ok)
			assert.Equal(t, analytics.InsightStructured, s.Kind)
			assert.Equal(t, tt.wantInsight, s.Insights)
			assert.Equal(t, tt.wantActions, s.Actions)
			assert.Equal(t, tt.wantImpact, s.Impact)
		})
	}
}

func TestParseInsights_Fallback(t *testing.T) {
	text := `## Key Insights
- Spend is up 12% on the previous period
* Supplier B delivered late on 3 orders

**Recommended Actions:**
1. Reorder m1 at store s1
2) Review supplier B terms

Impact: fewer stockouts
and steadier spend`

	s, ok := ParseInsights(text)
	require.True(t, ok)
	assert.Equal(t, analytics.InsightFallback, s.Kind)
	assert.Equal(t, []string{
		"Spend is up 12% on the previous period",
		"Supplier B delivered late on 3 orders",
	}, s.Insights)
	assert.Equal(t, []string{"Reorder m1 at store s1", "Review supplier B terms"}, s.Actions)
	assert.Equal(t, "fewer stockouts and steadier spend", s.Impact)
}

func TestParseInsights_NumberedHeaders(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "numbered list headers",
			text: "1. Key Insights:\n- Spend rose 20%\n- Two stockouts\n2. Recommended Actions:\n- Reorder amoxicillin\n- Call supplier S2\n",
		},
		{
			name: "bold numbered headers",
			text: "1. **Key Insights:**\n- Spend rose 20%\n- Two stockouts\n2. **Recommended Actions**:\n- Reorder amoxicillin\n- Call supplier S2\n",
		},
		{
			name: "markdown headers with numbers",
			text: "### 1. Insights\n- Spend rose 20%\n- Two stockouts\n### 2. Actions\n- Reorder amoxicillin\n- Call supplier S2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ParseInsights(tt.text)
			require.True(t, ok)
			assert.Equal(t, analytics.InsightFallback, s.Kind)
			assert.Equal(t, []string{"Spend rose 20%", "Two stockouts"}, s.Insights)
			assert.Equal(t, []string{"Reorder amoxicillin", "Call supplier S2"}, s.Actions)
		})
	}
}

func TestParseInsights_BulletsWithoutHeadersAreInsights(t *testing.T) {
	s, ok := ParseInsights("- first point\n- second point")
	require.True(t, ok)
	assert.Equal(t, analytics.InsightFallback, s.Kind)
	assert.Equal(t, []string{"first point", "second point"}, s.Insights)
	assert.Empty(t, s.Actions)
}

func TestParseInsights_InvalidJSONFallsBackToLines(t *testing.T) {
	s, ok := ParseInsights("{not json}\nActions:\n- restock m2")
	require.True(t, ok)
	assert.Equal(t, analytics.InsightFallback, s.Kind)
	assert.Equal(t, []string{"restock m2"}, s.Actions)
}

func TestParseInsights_Unusable(t *testing.T) {
	for _, text := range []string{
		"",
		"I cannot help with that.",
		`{"insights": [], "actions": []}`,
	} {
		s, ok := ParseInsights(text)
		assert.False(t, ok, text)
		assert.Nil(t, s)
	}
}
