package indexassessmentscore

// Input carries the job variables for an indexing request.
type Input struct {
	AssessmentID string `json:"assessmentId"`
}

// Output confirms the indexed document.
type Output struct {
	AssessmentID string `json:"assessmentId"`
	Index        string `json:"index"`
	Indexed      bool   `json:"indexed"`
}

// scoreDocument is the analytics projection written to the search index.
// Category percentages are flattened into a map so segmentation dashboards
// can aggregate per category without nested queries.
type scoreDocument struct {
	AssessmentID     string             `json:"assessmentId"`
	UserID           string             `json:"userId"`
	TemplateID       string             `json:"templateId"`
	TotalScore       float64            `json:"totalScore"`
	MaxPossibleScore float64            `json:"maxPossibleScore"`
	Percentage       float64            `json:"percentage"`
	BusinessLevel    string             `json:"businessLevel"`
	Confidence       int                `json:"confidence"`
	CategoryScores   map[string]float64 `json:"categoryScores"`
	IndexedAt        string             `json:"indexedAt"`
}
