package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"
)

// AssessmentStore loads assessments with their responses and persists
// computed scores.
type AssessmentStore struct {
	db *sql.DB
}

func NewAssessmentStore(db *sql.DB) *AssessmentStore {
	return &AssessmentStore{db: db}
}

// GetByID loads an assessment and its responses in submission order.
func (s *AssessmentStore) GetByID(ctx context.Context, assessmentID string) (*assessment.Assessment, error) {
	var a assessment.Assessment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, template_id, status, time_spent_seconds
		 FROM assessments WHERE id = $1`, assessmentID,
	).Scan(&a.ID, &a.UserID, &a.TemplateID, &a.Status, &a.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commonerrors.NewAssessmentNotFoundError(assessmentID)
		}
		return nil, commonerrors.NewQueryExecutionFailedError("assessment lookup", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, section_id, answer, valid
		 FROM assessment_responses WHERE assessment_id = $1 ORDER BY position`, assessmentID)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("response lookup", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp      assessment.Response
			answerRaw []byte
		)
		if err := rows.Scan(&resp.QuestionID, &resp.SectionID, &answerRaw, &resp.Valid); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("response scan", err)
		}
		if err := json.Unmarshal(answerRaw, &resp.Answer); err != nil {
			// The answer codec is permissive; this only fires on truly
			// broken rows. Treat as an unanswered response.
			resp.Answer = assessment.NullAnswer()
		}
		a.Responses = append(a.Responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("response iteration", err)
	}
	return &a, nil
}

// SaveScore upserts the computed score for an assessment. Rescoring the same
// assessment overwrites the previous result.
func (s *AssessmentStore) SaveScore(ctx context.Context, score *assessment.AssessmentScore) error {
	detail, err := json.Marshal(score)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessment_scores
			(assessment_id, total_score, max_possible_score, percentage, business_level, confidence, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (assessment_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			max_possible_score = EXCLUDED.max_possible_score,
			percentage = EXCLUDED.percentage,
			business_level = EXCLUDED.business_level,
			confidence = EXCLUDED.confidence,
			detail = EXCLUDED.detail`,
		score.AssessmentID, score.TotalScore, score.MaxPossibleScore,
		score.Percentage, string(score.BusinessLevel), score.Confidence, detail)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// GetScore loads a previously persisted score.
func (s *AssessmentStore) GetScore(ctx context.Context, assessmentID string) (*assessment.AssessmentScore, error) {
	var detail []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT detail FROM assessment_scores WHERE assessment_id = $1`, assessmentID,
	).Scan(&detail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commonerrors.NewScoreNotFoundError(assessmentID)
		}
		return nil, commonerrors.NewQueryExecutionFailedError("score lookup", err)
	}

	var score assessment.AssessmentScore
	if err := json.Unmarshal(detail, &score); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("score decode", err)
	}
	return &score, nil
}

// UpdateStatus transitions an assessment's lifecycle status.
func (s *AssessmentStore) UpdateStatus(ctx context.Context, assessmentID string, status assessment.AssessmentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET status = $2 WHERE id = $1`, assessmentID, string(status))
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("status update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return commonerrors.NewAssessmentNotFoundError(assessmentID)
	}
	return nil
}
