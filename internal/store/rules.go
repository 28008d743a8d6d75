package store

import (
	"context"
	"database/sql"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"

	"github.com/lib/pq"
)

// RuleStore loads scoring rules, recommendation rules and the recommendation
// catalog. Rule conditions are stored as the legacy string micro-language and
// parsed into tagged expressions once here, at load time.
type RuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// LoadScoringRules returns the scoring rules for a template category,
// including global rules (empty category), ordered by priority.
func (s *RuleStore) LoadScoringRules(ctx context.Context, category string) ([]assessment.ScoringRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, condition, modifier, adjustment, priority
		 FROM scoring_rules
		 WHERE category = $1 OR category = ''
		 ORDER BY priority`, category)
	if err != nil {
		return nil, commonerrors.NewRuleLoadFailedError(err)
	}
	defer rows.Close()

	var rules []assessment.ScoringRule
	for rows.Next() {
		var (
			rule      assessment.ScoringRule
			condition string
		)
		if err := rows.Scan(&rule.ID, &rule.Category, &condition, &rule.Modifier, &rule.Adjustment, &rule.Priority); err != nil {
			return nil, commonerrors.NewRuleLoadFailedError(err)
		}
		rule.Condition = assessment.ParseCondition(condition)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewRuleLoadFailedError(err)
	}
	return rules, nil
}

// LoadRecommendationRules returns the recommendation rules for a template
// category, including global rules, ordered by priority.
func (s *RuleStore) LoadRecommendationRules(ctx context.Context, category string) ([]assessment.RecommendationRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, condition, recommendation_ids, priority
		 FROM recommendation_rules
		 WHERE category = $1 OR category = ''
		 ORDER BY priority`, category)
	if err != nil {
		return nil, commonerrors.NewRuleLoadFailedError(err)
	}
	defer rows.Close()

	var rules []assessment.RecommendationRule
	for rows.Next() {
		var (
			rule      assessment.RecommendationRule
			condition string
			ids       pq.StringArray
		)
		if err := rows.Scan(&rule.ID, &rule.Category, &condition, &ids, &rule.Priority); err != nil {
			return nil, commonerrors.NewRuleLoadFailedError(err)
		}
		rule.Condition = assessment.ParseCondition(condition)
		rule.RecommendationIDs = []string(ids)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewRuleLoadFailedError(err)
	}
	return rules, nil
}

// bandKey addresses the category/band recommendation mapping.
type bandKey struct {
	category string
	band     assessment.ScoreBand
}

// MemoryCatalog is an in-memory assessment.Catalog built from the
// recommendation tables. Lookups never block, which keeps the engine free of
// I/O; the worker manager loads it once at startup.
type MemoryCatalog struct {
	byID   map[string]assessment.Recommendation
	byBand map[bandKey][]string
}

var _ assessment.Catalog = (*MemoryCatalog)(nil)

// Resolve returns the records for the given ids, preserving input order and
// skipping ids not in the catalog.
func (c *MemoryCatalog) Resolve(ids []string) []assessment.Recommendation {
	var out []assessment.Recommendation
	for _, id := range ids {
		if rec, ok := c.byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// ForCategory returns the recommendations configured for a category at the
// given score band.
func (c *MemoryCatalog) ForCategory(category string, band assessment.ScoreBand) []assessment.Recommendation {
	return c.Resolve(c.byBand[bandKey{category: category, band: band}])
}

// Len reports the number of catalog entries, for startup logging.
func (c *MemoryCatalog) Len() int { return len(c.byID) }

// LoadCatalog reads the full recommendation catalog and its category/band
// mappings into memory.
func (s *RuleStore) LoadCatalog(ctx context.Context) (*MemoryCatalog, error) {
	catalog := &MemoryCatalog{
		byID:   make(map[string]assessment.Recommendation),
		byBand: make(map[bandKey][]string),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, priority, type, action_items, resources, cost_tier
		 FROM recommendations`)
	if err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                   assessment.Recommendation
			actionItems, resources pq.StringArray
		)
		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Priority, &rec.Type, &actionItems, &resources, &rec.CostTier); err != nil {
			return nil, commonerrors.NewCatalogLoadFailedError(err)
		}
		rec.ActionItems = []string(actionItems)
		rec.Resources = []string(resources)
		catalog.byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}

	bandRows, err := s.db.QueryContext(ctx,
		`SELECT recommendation_id, category, band
		 FROM recommendation_bands ORDER BY position`)
	if err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	defer bandRows.Close()

	for bandRows.Next() {
		var (
			id, category string
			band         string
		)
		if err := bandRows.Scan(&id, &category, &band); err != nil {
			return nil, commonerrors.NewCatalogLoadFailedError(err)
		}
		key := bandKey{category: category, band: assessment.ScoreBand(band)}
		catalog.byBand[key] = append(catalog.byBand[key], id)
	}
	if err := bandRows.Err(); err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	return catalog, nil
}
