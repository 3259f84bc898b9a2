package analytics

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/medstock/backend/internal/domain/analytics"
)

var (
	// bulletLine matches "- text", "* text", "• text", "1. text" and "2) text"
	bulletLine = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,2}[.)])\s+(.+?)\s*$`)
	// headerLine matches "## Key Insights", "### 2. Actions", "**Actions:**", "Impact: text"
	headerLine = regexp.MustCompile(`^\s*(#{1,6}\s*|\*\*)?(?:\d{1,2}[.)]\s*)?([A-Za-z][A-Za-z ]{2,40})(\*\*)?\s*(:)?\s*(?:\*\*)?\s*(.*)$`)
	fenceLine  = regexp.MustCompile("^\\s*```")
)

type insightSection int

const (
	sectionNone insightSection = iota
	sectionInsights
	sectionActions
	sectionImpact
)

// structuredInsights is the JSON shape requested from the reasoning service.
// The alternate field names are ones models commonly answer with.
type structuredInsights struct {
	Insights           []string `json:"insights"`
	KeyInsights        []string `json:"key_insights"`
	Actions            []string `json:"actions"`
	Recommendations    []string `json:"recommendations"`
	RecommendedActions []string `json:"recommended_actions"`
	Impact             string   `json:"impact"`
	ExpectedImpact     string   `json:"expected_impact"`
}

// ParseInsights turns a reasoning answer into a summary.
// JSON output yields analytics.InsightStructured; otherwise bullet lines under
// insight, action and impact headers yield analytics.InsightFallback. ok is
// false when neither form produced any insight or action.
func ParseInsights(text string) (summary *analytics.InsightSummary, ok bool) {
	if s, ok := parseStructured(text); ok {
		return s, true
	}
	return parseFallback(text)
}

func parseStructured(text string) (*analytics.InsightSummary, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var payload structuredInsights
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, false
	}

	s := &analytics.InsightSummary{
		Kind:     analytics.InsightStructured,
		Insights: cleanItems(append(payload.Insights, payload.KeyInsights...)),
		Actions:  cleanItems(append(append(payload.Actions, payload.Recommendations...), payload.RecommendedActions...)),
		Impact:   strings.TrimSpace(firstNonEmpty(payload.Impact, payload.ExpectedImpact)),
	}
	if len(s.Insights) == 0 && len(s.Actions) == 0 {
		return nil, false
	}
	return s, true
}

func parseFallback(text string) (*analytics.InsightSummary, bool) {
	s := &analytics.InsightSummary{Kind: analytics.InsightFallback}
	var impact []string
	section := sectionNone

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || fenceLine.MatchString(line) {
			continue
		}

		if m := bulletLine.FindStringSubmatch(line); m != nil {
			item := strings.Trim(m[1], "*_ ")
			// "1. Key Insights:" is a numbered header, not an item
			if title, found := strings.CutSuffix(item, ":"); found {
				if next := classifyHeader(strings.Trim(title, "*_ ")); next != sectionNone {
					section = next
					continue
				}
			}
			switch section {
			case sectionActions:
				s.Actions = append(s.Actions, item)
			case sectionImpact:
				impact = append(impact, item)
			default:
				s.Insights = append(s.Insights, item)
			}
			continue
		}

		if m := headerLine.FindStringSubmatch(line); m != nil && (m[1] != "" || m[4] == ":") {
			if next := classifyHeader(m[2]); next != sectionNone {
				section = next
				if rest := strings.Trim(m[5], "*_ "); rest != "" {
					switch section {
					case sectionInsights:
						s.Insights = append(s.Insights, rest)
					case sectionActions:
						s.Actions = append(s.Actions, rest)
					case sectionImpact:
						impact = append(impact, rest)
					}
				}
				continue
			}
		}

		if section == sectionImpact {
			impact = append(impact, strings.TrimSpace(line))
		}
	}

	s.Insights = cleanItems(s.Insights)
	s.Actions = cleanItems(s.Actions)
	s.Impact = strings.Join(impact, " ")
	if len(s.Insights) == 0 && len(s.Actions) == 0 {
		return nil, false
	}
	return s, true
}

func classifyHeader(title string) insightSection {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "insight") || strings.Contains(t, "finding") || strings.Contains(t, "observation"):
		return sectionInsights
	case strings.Contains(t, "action") || strings.Contains(t, "recommend") || strings.Contains(t, "next step"):
		return sectionActions
	case strings.Contains(t, "impact"):
		return sectionImpact
	}
	return sectionNone
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
