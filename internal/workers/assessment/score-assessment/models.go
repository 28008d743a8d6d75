package scoreassessment

// Input carries the job variables for a scoring request.
type Input struct {
	AssessmentID string `json:"assessmentId"`
}

// Output is published back to the workflow after scoring. The full breakdown
// is persisted, not carried through workflow variables.
type Output struct {
	AssessmentID     string  `json:"assessmentId"`
	TotalScore       float64 `json:"totalScore"`
	MaxPossibleScore float64 `json:"maxPossibleScore"`
	Percentage       float64 `json:"percentage"`
	BusinessLevel    string  `json:"businessLevel"`
	Confidence       int     `json:"confidence"`
	TemplateCategory string  `json:"templateCategory"`
	SkippedResponses int     `json:"skippedResponses"`
}
