// Package assessment implements the scoring core of the UMKM self-assessment
// subsystem: deterministic score calculation, rule-based score adjustment and
// recommendation generation. The package performs no I/O; templates, responses
// and the recommendation catalog are supplied by the caller.
package assessment

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionScale          QuestionType = "scale"
	QuestionBoolean        QuestionType = "boolean"
	QuestionText           QuestionType = "text"
	QuestionFileUpload     QuestionType = "file_upload"
)

// AssessmentStatus tracks the lifecycle of a user's attempt.
type AssessmentStatus string

const (
	StatusDraft      AssessmentStatus = "draft"
	StatusInProgress AssessmentStatus = "in_progress"
	StatusCompleted  AssessmentStatus = "completed"
	StatusExpired    AssessmentStatus = "expired"
	StatusArchived   AssessmentStatus = "archived"
)

// Option is a selectable choice on a multiple_choice question. Points is the
// raw score contributed when the option is selected.
type Option struct {
	Value  string  `json:"value"`
	Label  string  `json:"label,omitempty"`
	Points float64 `json:"points"`
}

// Question is one prompt inside a section. Weight multiplies the raw 0-100
// score before aggregation; Category groups scores independently of sections.
type Question struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Type     QuestionType `json:"type"`
	Weight   float64      `json:"weight"`
	Category string       `json:"category"`
	Options  []Option     `json:"options,omitempty"`
	ScaleMin float64      `json:"scaleMin,omitempty"`
	ScaleMax float64      `json:"scaleMax,omitempty"`
}

// Section is an ordered group of questions with completion criteria.
type Section struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Required            bool       `json:"required"`
	MinAnswered         int        `json:"minAnswered,omitempty"`
	RequiredQuestionIDs []string   `json:"requiredQuestionIds,omitempty"`
	Questions           []Question `json:"questions"`
}

// Template is the immutable definition of an assessment: sections, questions
// and the rule sets applied after scoring. Read-only to this package.
type Template struct {
	ID                  string               `json:"id"`
	Category            string               `json:"category"`
	Sections            []Section            `json:"sections"`
	ScoringRules        []ScoringRule        `json:"scoringRules,omitempty"`
	RecommendationRules []RecommendationRule `json:"recommendationRules,omitempty"`
	EstimatedMinutes    int                  `json:"estimatedMinutes"`
}

// Response is one answer to one question. Responses flagged invalid, and
// responses referencing questions absent from the template, are excluded from
// scoring.
type Response struct {
	QuestionID string      `json:"questionId"`
	SectionID  string      `json:"sectionId"`
	Answer     AnswerValue `json:"answer"`
	Valid      bool        `json:"valid"`
}

// Assessment is a user's attempt at a template. Never mutated by the engine.
type Assessment struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	TemplateID       string           `json:"templateId"`
	Status           AssessmentStatus `json:"status"`
	Responses        []Response       `json:"responses"`
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
}

// ScoreLevel is the discrete banding of a category percentage.
type ScoreLevel string

const (
	LevelLow    ScoreLevel = "low"
	LevelMedium ScoreLevel = "medium"
	LevelHigh   ScoreLevel = "high"
)

// BusinessLevel is the coarse classification derived from the overall
// percentage.
type BusinessLevel string

const (
	BusinessMicro  BusinessLevel = "micro"
	BusinessSmall  BusinessLevel = "small"
	BusinessMedium BusinessLevel = "medium"
)

// CategoryScore aggregates the weighted scores of all answered questions
// sharing a category tag.
type CategoryScore struct {
	Category   string     `json:"category"`
	Score      float64    `json:"score"`
	MaxScore   float64    `json:"maxScore"`
	Percentage float64    `json:"percentage"`
	Level      ScoreLevel `json:"level"`
}

// SectionScore mirrors CategoryScore but restricted to a section's questions.
type SectionScore struct {
	SectionID  string  `json:"sectionId"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Percentage float64 `json:"percentage"`
}

// QuestionScore records the raw outcome for one answered question.
type QuestionScore struct {
	QuestionID string      `json:"questionId"`
	Title      string      `json:"title"`
	Answer     AnswerValue `json:"answer"`
	Score      float64     `json:"score"`
	MaxScore   float64     `json:"maxScore"`
	Weight     float64     `json:"weight"`
}

// ScoreBreakdown is the detailed view attached to an AssessmentScore.
// SkippedResponses counts valid responses dropped because their question no
// longer exists in the template.
type ScoreBreakdown struct {
	Sections          []SectionScore  `json:"sections"`
	Questions         []QuestionScore `json:"questions"`
	RecommendationIDs []string        `json:"recommendationIds"`
	SkippedResponses  int             `json:"skippedResponses"`
}

// AssessmentScore is the engine output for one scored assessment.
type AssessmentScore struct {
	AssessmentID     string          `json:"assessmentId"`
	TotalScore       float64         `json:"totalScore"`
	MaxPossibleScore float64         `json:"maxPossibleScore"`
	Percentage       float64         `json:"percentage"`
	Categories       []CategoryScore `json:"categoryScores"`
	BusinessLevel    BusinessLevel   `json:"businessLevel"`
	Confidence       int             `json:"confidence"`
	Breakdown        ScoreBreakdown  `json:"breakdown"`
}

// AdjustmentType selects how a scoring rule modifies the total score.
type AdjustmentType string

const (
	AdjustAdd      AdjustmentType = "add"
	AdjustMultiply AdjustmentType = "multiply"
	AdjustSet      AdjustmentType = "set"
)

// ScoringRule conditionally adjusts a computed score. Rules are applied in
// ascending priority order (lower number first).
type ScoringRule struct {
	ID         string         `json:"id"`
	Category   string         `json:"category,omitempty"`
	Condition  Condition      `json:"condition"`
	Modifier   float64        `json:"modifier"`
	Adjustment AdjustmentType `json:"adjustment"`
	Priority   int            `json:"priority"`
}

// RecommendationRule surfaces recommendation ids when its condition holds.
type RecommendationRule struct {
	ID                string    `json:"id"`
	Category          string    `json:"category,omitempty"`
	Condition         Condition `json:"condition"`
	RecommendationIDs []string  `json:"recommendationIds"`
	Priority          int       `json:"priority"`
}

// PriorityTier orders recommendations in the final list.
type PriorityTier string

const (
	TierLow      PriorityTier = "low"
	TierMedium   PriorityTier = "medium"
	TierHigh     PriorityTier = "high"
	TierCritical PriorityTier = "critical"
)

// tierRank maps tiers to sort ranks; higher sorts first. Unknown tiers rank
// below low.
func tierRank(t PriorityTier) int {
	switch t {
	case TierCritical:
		return 4
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	}
	return 0
}

// Recommendation is one actionable item surfaced to the business owner.
type Recommendation struct {
	ID          string       `json:"id"`
	Category    string       `json:"category"`
	Priority    PriorityTier `json:"priority"`
	Type        string       `json:"type,omitempty"`
	ActionItems []string     `json:"actionItems,omitempty"`
	Resources   []string     `json:"resources,omitempty"`
	CostTier    string       `json:"costTier,omitempty"`
}
