package carbon

import (
	"sort"
	"strings"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/config"
)

// Scope selects which keyword table the classifier consults.
type Scope int

const (
	ScopeOne Scope = iota + 1
	ScopeTwo
	ScopeThree
)

// CategoryOther is where rows land when no keyword matches.
const CategoryOther = "other"

// Classifier buckets emission rows into semantic categories by keyword
// matching on free-text source names. The tables are injected at
// construction; matching is a best-effort heuristic, not a
// compliance-grade classifier.
type Classifier struct {
	tables map[Scope]map[string][]string
}

func NewClassifier(cfg config.ClassificationConfig) *Classifier {
	return &Classifier{
		tables: map[Scope]map[string][]string{
			ScopeOne:   cfg.Scope1,
			ScopeTwo:   cfg.Scope2,
			ScopeThree: cfg.Scope3,
		},
	}
}

// Classify returns the category for one row.
func (c *Classifier) Classify(scope Scope, row EmissionRow) string {
	label := strings.ToLower(row.Label())
	if label == "" {
		return CategoryOther
	}
	// Categories are scanned in sorted order so a label matching two
	// tables classifies the same way on every run.
	table := c.tables[scope]
	categories := make([]string, 0, len(table))
	for category := range table {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, keyword := range table[category] {
			if strings.Contains(label, keyword) {
				return category
			}
		}
	}
	return CategoryOther
}

// Breakdown sums active rows' per-ha emissions by category.
func (c *Classifier) Breakdown(scope Scope, rows []EmissionRow) map[string]float64 {
	out := make(map[string]float64)
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		out[c.Classify(scope, row)] += row.TCO2ePerHaPerYear
	}
	return out
}
