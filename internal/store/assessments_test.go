package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssessmentStoreFixture(t *testing.T) (*AssessmentStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAssessmentStore(db), mock
}

func expectAssessmentRow(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "template_id", "status", "time_spent_seconds"}).
			AddRow(id, "user-1", "tpl-1", "completed", 540))
}

func TestAssessmentStore_GetByID(t *testing.T) {
	store, mock := newAssessmentStoreFixture(t)

	expectAssessmentRow(mock, "assess-1")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT question_id, section_id, answer, valid`)).
		WithArgs("assess-1").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "section_id", "answer", "valid"}).
			AddRow("q1", "s1", []byte(`"option_a"`), true).
			AddRow("q2", "s1", []byte(`4`), true).
			AddRow("q3", "s2", []byte(`true`), false).
			AddRow("q4", "s2", []byte(`garbage{{{`), true))

	a, err := store.GetByID(context.Background(), "assess-1")

	require.NoError(t, err)
	assert.Equal(t, "assess-1", a.ID)
	assert.Equal(t, "user-1", a.UserID)
	assert.Equal(t, assessment.StatusCompleted, a.Status)
	assert.Equal(t, 540, a.TimeSpentSeconds)

	require.Len(t, a.Responses, 4)
	assert.Equal(t, assessment.StringAnswer("option_a"), a.Responses[0].Answer)
	assert.Equal(t, assessment.NumberAnswer(4), a.Responses[1].Answer)
	assert.False(t, a.Responses[2].Valid)
	// A broken answer column decodes as an unanswered response.
	assert.True(t, a.Responses[3].Answer.IsNull())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_GetByID_NotFound(t *testing.T) {
	store, mock := newAssessmentStoreFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs("assess-missing").
		WillReturnError(sql.ErrNoRows)

	a, err := store.GetByID(context.Background(), "assess-missing")

	assert.Nil(t, a)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeAssessmentNotFound, stdErr.Code)
}

func TestAssessmentStore_SaveScore(t *testing.T) {
	store, mock := newAssessmentStoreFixture(t)

	score := &assessment.AssessmentScore{
		AssessmentID:     "assess-1",
		TotalScore:       300,
		MaxPossibleScore: 400,
		Percentage:       75,
		BusinessLevel:    assessment.BusinessMedium,
		Confidence:       90,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assessment_scores`)).
		WithArgs("assess-1", 300.0, 400.0, 75.0, "medium", 90, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveScore(context.Background(), score))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_GetScore_RoundTrip(t *testing.T) {
	store, mock := newAssessmentStoreFixture(t)

	detail := `{
		"assessmentId": "assess-1",
		"totalScore": 300,
		"maxPossibleScore": 400,
		"percentage": 75,
		"businessLevel": "medium",
		"confidence": 90,
		"categoryScores": [
			{"category": "digital", "score": 300, "maxScore": 400, "percentage": 75, "level": "high"}
		],
		"breakdown": {"sections": [], "questions": [], "recommendationIds": null, "skippedResponses": 0}
	}`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT detail FROM assessment_scores WHERE assessment_id = $1`)).
		WithArgs("assess-1").
		WillReturnRows(sqlmock.NewRows([]string{"detail"}).AddRow([]byte(detail)))

	score, err := store.GetScore(context.Background(), "assess-1")

	require.NoError(t, err)
	assert.Equal(t, 300.0, score.TotalScore)
	assert.Equal(t, assessment.BusinessMedium, score.BusinessLevel)
	require.Len(t, score.Categories, 1)
	assert.Equal(t, assessment.LevelHigh, score.Categories[0].Level)
}

func TestAssessmentStore_GetScore_NotFound(t *testing.T) {
	store, mock := newAssessmentStoreFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT detail FROM assessment_scores WHERE assessment_id = $1`)).
		WithArgs("assess-unscored").
		WillReturnError(sql.ErrNoRows)

	score, err := store.GetScore(context.Background(), "assess-unscored")

	assert.Nil(t, score)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeScoreNotFound, stdErr.Code)
}

func TestAssessmentStore_UpdateStatus(t *testing.T) {
	t.Run("updates existing row", func(t *testing.T) {
		store, mock := newAssessmentStoreFixture(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE assessments SET status = $2 WHERE id = $1`)).
			WithArgs("assess-1", "completed").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateStatus(context.Background(), "assess-1", assessment.StatusCompleted)
		require.NoError(t, err)
	})

	t.Run("missing row reports not found", func(t *testing.T) {
		store, mock := newAssessmentStoreFixture(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE assessments SET status = $2 WHERE id = $1`)).
			WithArgs("assess-missing", "completed").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateStatus(context.Background(), "assess-missing", assessment.StatusCompleted)
		var stdErr *commonerrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, commonerrors.ErrCodeAssessmentNotFound, stdErr.Code)
	})
}
