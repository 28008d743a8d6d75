package assessment

import "sort"

// ScoreBand selects which slice of the recommendation catalog applies to a
// category's percentage.
type ScoreBand string

const (
	BandLowScore    ScoreBand = "low_score"    // percentage < 50
	BandMediumScore ScoreBand = "medium_score" // 50 <= percentage < 70
)

// Band thresholds for threshold-triggered recommendations.
const (
	bandLowCutoff    = 50.0
	bandMediumCutoff = 70.0
)

// Catalog resolves recommendation ids and category/band lookups against the
// platform's recommendation content. Implementations must be safe for
// concurrent use and must not block; the store layer satisfies this by
// loading the catalog into memory up front.
type Catalog interface {
	// Resolve returns the full records for the given ids, skipping unknown
	// ids, preserving input order.
	Resolve(ids []string) []Recommendation
	// ForCategory returns the recommendations configured for a category at
	// the given score band.
	ForCategory(category string, band ScoreBand) []Recommendation
}

// thresholdBand maps a category percentage to its recommendation band, if
// any. Categories at or above the medium cutoff trigger nothing.
func thresholdBand(pct float64) (ScoreBand, bool) {
	switch {
	case pct < bandLowCutoff:
		return BandLowScore, true
	case pct < bandMediumCutoff:
		return BandMediumScore, true
	}
	return "", false
}

// Generator derives recommendations for scored assessments. Stateless apart
// from its immutable rule set and catalog.
type Generator struct {
	rules   []RecommendationRule
	catalog Catalog
}

// NewGenerator constructs a Generator. catalog may be nil, in which case
// nothing resolves and Generate returns an empty list.
func NewGenerator(rules []RecommendationRule, catalog Catalog) *Generator {
	return &Generator{rules: rules, catalog: catalog}
}

// Generate unions rule-triggered and threshold-triggered recommendations for
// the score, deduplicates by id (first occurrence wins) and orders the result
// by priority tier, critical first. Ties keep their prior relative order.
func (g *Generator) Generate(a *Assessment, score *AssessmentScore) []Recommendation {
	recs := []Recommendation{}
	if g.catalog == nil || score == nil {
		return recs
	}

	seen := make(map[string]struct{})
	appendUnique := func(candidates []Recommendation) {
		for _, rec := range candidates {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			recs = append(recs, rec)
		}
	}

	ordered := make([]RecommendationRule, len(g.rules))
	copy(ordered, g.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	for _, rule := range ordered {
		if !rule.Condition.Eval(score) {
			continue
		}
		appendUnique(g.catalog.Resolve(rule.RecommendationIDs))
	}

	for _, cs := range score.Categories {
		band, ok := thresholdBand(cs.Percentage)
		if !ok {
			continue
		}
		appendUnique(g.catalog.ForCategory(cs.Category, band))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return tierRank(recs[i].Priority) > tierRank(recs[j].Priority)
	})
	return recs
}
