package assessment

import (
	"errors"
	"math"
	"strings"

	"umkm-assessment-workers/internal/common/logger"
)

// ErrScoreCalculation is the single opaque failure returned when scoring
// panics. Partial results are never surfaced.
var ErrScoreCalculation = errors.New("failed to calculate assessment score")

// Confidence weighting: completion ratio dominates, time spent tempers it.
const (
	confidenceCompletionWeight = 0.7
	confidenceTimeWeight       = 0.3
)

// Category and overall level thresholds.
const (
	levelHighThreshold   = 70.0
	levelMediumThreshold = 40.0
)

// Engine computes deterministic score breakdowns for completed assessments.
// It is stateless apart from the immutable scoring rules and catalog it was
// constructed with, so a single Engine may score any number of assessments
// concurrently.
type Engine struct {
	rules   []ScoringRule
	catalog Catalog
	logger  logger.Logger
}

// NewEngine constructs an Engine. catalog may be nil, in which case the
// breakdown's recommendation-id preview is empty. log may be nil.
func NewEngine(rules []ScoringRule, catalog Catalog, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{rules: rules, catalog: catalog, logger: log}
}

// CalculateScore scores an assessment against its template: per-question raw
// scores by type, weighted aggregation per category and section, overall
// business level, confidence, and the scoring-rule adjustment pass. A question
// answered more than once counts once, the last valid response winning. The
// inputs are never mutated and identical inputs always produce identical
// output. Any panic during scoring is converted into ErrScoreCalculation.
func (e *Engine) CalculateScore(a *Assessment, t *Template) (score *AssessmentScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("scoring panicked", map[string]interface{}{
				"assessmentId": safeAssessmentID(a),
				"panic":        r,
			})
			score, err = nil, ErrScoreCalculation
		}
	}()

	if a == nil || t == nil {
		return nil, ErrScoreCalculation
	}

	questions := indexQuestions(t)
	categories := categoryOrder(t)

	accum := make(map[string]*scoreAccumulator, len(categories))
	for _, cat := range categories {
		accum[cat] = &scoreAccumulator{}
	}

	// Valid responses keyed by question id; later duplicates overwrite, so a
	// resubmitted answer counts once in every view of the score.
	latest := make(map[string]AnswerValue, len(a.Responses))
	var skipped int
	for _, resp := range a.Responses {
		if !resp.Valid {
			continue
		}
		if _, ok := questions[resp.QuestionID]; !ok {
			// Tolerates template drift: the response is excluded from
			// both numerator and denominator.
			skipped++
			continue
		}
		latest[resp.QuestionID] = resp.Answer
	}

	var questionScores []QuestionScore
	for si := range t.Sections {
		for qi := range t.Sections[si].Questions {
			q := &t.Sections[si].Questions[qi]
			answer, ok := latest[q.ID]
			if !ok {
				continue
			}

			raw := e.rawScore(q, answer)
			maxRaw := maxRawScore(q)
			accum[q.Category].add(raw*q.Weight, maxRaw*q.Weight)

			questionScores = append(questionScores, QuestionScore{
				QuestionID: q.ID,
				Title:      q.Title,
				Answer:     answer,
				Score:      raw,
				MaxScore:   maxRaw,
				Weight:     q.Weight,
			})
		}
	}

	categoryScores := make([]CategoryScore, 0, len(categories))
	var totalScore, totalMax float64
	for _, cat := range categories {
		acc := accum[cat]
		pct := percentage(acc.score, acc.max)
		categoryScores = append(categoryScores, CategoryScore{
			Category:   cat,
			Score:      acc.score,
			MaxScore:   acc.max,
			Percentage: pct,
			Level:      classifyLevel(pct),
		})
		totalScore += acc.score
		totalMax += acc.max
	}

	overallPct := percentage(totalScore, totalMax)

	score = &AssessmentScore{
		AssessmentID:     a.ID,
		TotalScore:       totalScore,
		MaxPossibleScore: totalMax,
		Percentage:       overallPct,
		Categories:       categoryScores,
		BusinessLevel:    classifyBusinessLevel(overallPct),
		Confidence:       e.confidence(a, t, len(latest)),
		Breakdown: ScoreBreakdown{
			Sections:         e.sectionScores(t, latest),
			Questions:        questionScores,
			SkippedResponses: skipped,
		},
	}
	score.Breakdown.RecommendationIDs = previewRecommendationIDs(e.catalog, categoryScores)

	return ApplyScoringRules(score, e.rules), nil
}

type scoreAccumulator struct {
	score float64
	max   float64
}

func (s *scoreAccumulator) add(score, max float64) {
	s.score += score
	s.max += max
}

// rawScore computes the 0-100 raw score for one answer by question type.
// Unknown types score zero; that leniency is logged so drift in template
// definitions is visible.
func (e *Engine) rawScore(q *Question, answer AnswerValue) float64 {
	switch q.Type {
	case QuestionMultipleChoice:
		return multipleChoiceScore(q, answer)
	case QuestionScale:
		if answer.Kind != AnswerNumber {
			return 0
		}
		return scaleScore(q, answer.Num)
	case QuestionBoolean:
		if answer.Kind == AnswerBool && answer.Bool {
			return 100
		}
		return 0
	case QuestionText:
		if answer.Kind == AnswerString && strings.TrimSpace(answer.Str) != "" {
			return 100
		}
		return 0
	case QuestionFileUpload:
		// No grading policy for uploads.
		return 0
	}
	e.logger.Warn("unknown question type scored as zero", map[string]interface{}{
		"questionId": q.ID,
		"type":       string(q.Type),
	})
	return 0
}

func multipleChoiceScore(q *Question, answer AnswerValue) float64 {
	switch answer.Kind {
	case AnswerStringList:
		var sum float64
		for _, selected := range answer.StrList {
			sum += optionPoints(q.Options, selected)
		}
		return sum
	case AnswerString:
		return optionPoints(q.Options, answer.Str)
	}
	return 0
}

func optionPoints(options []Option, value string) float64 {
	for _, opt := range options {
		if opt.Value == value {
			return opt.Points
		}
	}
	return 0
}

// scaleScore normalizes a numeric answer into [0,100] across the question's
// configured range. A degenerate range scores zero rather than dividing by
// zero; out-of-range answers are clamped so the result stays in [0,100].
func scaleScore(q *Question, answer float64) float64 {
	span := q.ScaleMax - q.ScaleMin
	if span <= 0 {
		return 0
	}
	normalized := (answer - q.ScaleMin) / span * 100
	return clampFloat(normalized, 0, 100)
}

// maxRawScore is the highest raw score attainable on a question: the best
// option for multiple choice, 100 for scale/boolean/text. File uploads and
// unknown types carry no attainable score and contribute to neither side of
// the aggregation.
func maxRawScore(q *Question) float64 {
	switch q.Type {
	case QuestionMultipleChoice:
		var best float64
		for _, opt := range q.Options {
			if opt.Points > best {
				best = opt.Points
			}
		}
		return best
	case QuestionScale, QuestionBoolean, QuestionText:
		return 100
	}
	return 0
}

// confidence blends completion rate with time spent relative to the
// template's estimate, rounded and clamped to [0,100].
func (e *Engine) confidence(a *Assessment, t *Template, answeredCount int) int {
	total := questionCount(t)
	var completion float64
	if total > 0 {
		completion = float64(answeredCount) / float64(total) * 100
	}

	var timeRatio float64
	if t.EstimatedMinutes > 0 {
		timeRatio = float64(a.TimeSpentSeconds) / float64(t.EstimatedMinutes*60) * 100
		if timeRatio > 100 {
			timeRatio = 100
		}
	}

	raw := confidenceCompletionWeight*completion + confidenceTimeWeight*timeRatio
	return int(clampFloat(math.Round(raw), 0, 100))
}

// sectionScores aggregates the same deduplicated answers per section, so the
// section view always sums to the category view.
func (e *Engine) sectionScores(t *Template, latest map[string]AnswerValue) []SectionScore {
	scores := make([]SectionScore, 0, len(t.Sections))
	for _, section := range t.Sections {
		var sum, max float64
		for i := range section.Questions {
			q := &section.Questions[i]
			answer, ok := latest[q.ID]
			if !ok {
				continue
			}
			sum += e.rawScore(q, answer) * q.Weight
			max += maxRawScore(q) * q.Weight
		}
		scores = append(scores, SectionScore{
			SectionID:  section.ID,
			Title:      section.Title,
			Score:      sum,
			MaxScore:   max,
			Percentage: percentage(sum, max),
		})
	}
	return scores
}

// previewRecommendationIDs runs the generator's category-threshold logic
// restricted to ids only, so the breakdown can reference recommendations
// before the full generation pass.
func previewRecommendationIDs(catalog Catalog, categories []CategoryScore) []string {
	if catalog == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]struct{})
	for _, cs := range categories {
		band, ok := thresholdBand(cs.Percentage)
		if !ok {
			continue
		}
		for _, rec := range catalog.ForCategory(cs.Category, band) {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func indexQuestions(t *Template) map[string]*Question {
	idx := make(map[string]*Question)
	for si := range t.Sections {
		for qi := range t.Sections[si].Questions {
			q := &t.Sections[si].Questions[qi]
			idx[q.ID] = q
		}
	}
	return idx
}

// categoryOrder lists category tags in order of first appearance in the
// template, which fixes the ordering of CategoryScore output.
func categoryOrder(t *Template) []string {
	var order []string
	seen := make(map[string]struct{})
	for _, section := range t.Sections {
		for _, q := range section.Questions {
			if _, ok := seen[q.Category]; ok {
				continue
			}
			seen[q.Category] = struct{}{}
			order = append(order, q.Category)
		}
	}
	return order
}

func questionCount(t *Template) int {
	n := 0
	for _, section := range t.Sections {
		n += len(section.Questions)
	}
	return n
}

func classifyLevel(pct float64) ScoreLevel {
	switch {
	case pct >= levelHighThreshold:
		return LevelHigh
	case pct >= levelMediumThreshold:
		return LevelMedium
	}
	return LevelLow
}

func classifyBusinessLevel(pct float64) BusinessLevel {
	switch {
	case pct >= levelHighThreshold:
		return BusinessMedium
	case pct >= levelMediumThreshold:
		return BusinessSmall
	}
	return BusinessMicro
}

func percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max * 100
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func safeAssessmentID(a *Assessment) string {
	if a == nil {
		return ""
	}
	return a.ID
}
