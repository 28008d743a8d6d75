package generaterecommendations

import "umkm-assessment-workers/internal/assessment"

// Input carries the job variables for a recommendation request. The
// assessment must already have been scored.
type Input struct {
	AssessmentID string `json:"assessmentId"`
}

// Output lists the resolved recommendations, ordered critical-first.
type Output struct {
	AssessmentID    string                      `json:"assessmentId"`
	Recommendations []assessment.Recommendation `json:"recommendations"`
	Count           int                         `json:"count"`
}
