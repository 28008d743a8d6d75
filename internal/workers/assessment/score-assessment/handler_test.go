package scoreassessment

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testTemplateJSON = `{
	"id": "tpl-1",
	"category": "digital_readiness",
	"estimatedMinutes": 10,
	"sections": [
		{
			"id": "s1",
			"title": "Digital Presence",
			"questions": [
				{
					"id": "q1",
					"title": "Sales channel",
					"type": "multiple_choice",
					"weight": 2,
					"category": "digital",
					"options": [
						{"value": "a", "points": 50},
						{"value": "b", "points": 80},
						{"value": "c", "points": 100}
					]
				},
				{
					"id": "q2",
					"title": "Accepts digital payment",
					"type": "boolean",
					"weight": 1,
					"category": "digital"
				}
			]
		}
	]
}`

func newHandlerFixture(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	handler := NewHandler(
		&Config{Timeout: 30 * time.Second},
		store.NewTemplateStore(db, nil, time.Minute, log),
		store.NewAssessmentStore(db),
		store.NewRuleStore(db),
		nil,
		log,
	)
	return handler, mock
}

func expectAssessment(mock sqlmock.Sqlmock, id, status string, answers [][2]string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "template_id", "status", "time_spent_seconds"}).
			AddRow(id, "user-1", "tpl-1", status, 600))

	rows := sqlmock.NewRows([]string{"question_id", "section_id", "answer", "valid"})
	for _, qa := range answers {
		rows.AddRow(qa[0], "s1", []byte(qa[1]), true)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assessment_responses`)).
		WithArgs(id).
		WillReturnRows(rows)
}

func expectTemplate(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT definition FROM assessment_templates WHERE id = $1`)).
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow([]byte(testTemplateJSON)))
}

func expectScoringRules(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM scoring_rules`)).
		WithArgs("digital_readiness").
		WillReturnRows(rows)
}

func emptyScoringRules() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "category", "condition", "modifier", "adjustment", "priority"})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ScoresCompletedAssessment(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	expectAssessment(mock, "assess-1", "completed", [][2]string{
		{"q1", `"c"`},
		{"q2", `true`},
	})
	expectTemplate(mock)
	expectScoringRules(mock, emptyScoringRules())
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assessment_scores`)).
		WithArgs("assess-1", 300.0, 300.0, 100.0, "medium", 100, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-1"})

	require.NoError(t, err)
	assert.Equal(t, "assess-1", output.AssessmentID)
	assert.Equal(t, 300.0, output.TotalScore) // 100*2 + 100*1
	assert.Equal(t, 300.0, output.MaxPossibleScore)
	assert.Equal(t, 100.0, output.Percentage)
	assert.Equal(t, "medium", output.BusinessLevel)
	assert.Equal(t, 100, output.Confidence)
	assert.Equal(t, "digital_readiness", output.TemplateCategory)
	assert.Equal(t, 0, output.SkippedResponses)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AppliesSharedScoringRules(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	// "a" scores 50*2=100, false scores 0: 100/300 = 33.33%.
	expectAssessment(mock, "assess-2", "completed", [][2]string{
		{"q1", `"a"`},
		{"q2", `false`},
	})
	expectTemplate(mock)
	expectScoringRules(mock, emptyScoringRules().
		AddRow("r1", "", "percentage < 40", 5.0, "add", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assessment_scores`)).
		WithArgs("assess-2", 105.0, 300.0, 35.0, "micro", 100, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-2"})

	require.NoError(t, err)
	assert.Equal(t, 105.0, output.TotalScore)
	assert.Equal(t, 35.0, output.Percentage)
	assert.Equal(t, "micro", output.BusinessLevel)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CompletesInProgressAssessment(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	expectAssessment(mock, "assess-3", "in_progress", [][2]string{
		{"q1", `"b"`},
	})
	expectTemplate(mock)
	expectScoringRules(mock, emptyScoringRules())
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assessment_scores`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE assessments SET status = $2 WHERE id = $1`)).
		WithArgs("assess-3", "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-3"})

	require.NoError(t, err)
	assert.Equal(t, 160.0, output.TotalScore) // 80*2, only q1 answered
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Path Tests
// ==========================

func TestHandler_Execute_RejectsDraftAssessment(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	expectAssessment(mock, "assess-4", "draft", nil)

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-4"})

	assert.Nil(t, output)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeAssessmentNotCompleted, stdErr.Code)
}

func TestHandler_Execute_AssessmentNotFound(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs("assess-missing").
		WillReturnError(sql.ErrNoRows)

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-missing"})

	assert.Nil(t, output)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeAssessmentNotFound, stdErr.Code)
}

func TestHandler_Execute_TemplateNotFound(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	expectAssessment(mock, "assess-5", "completed", nil)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT definition FROM assessment_templates WHERE id = $1`)).
		WithArgs("tpl-1").
		WillReturnError(sql.ErrNoRows)

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-5"})

	assert.Nil(t, output)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeTemplateNotFound, stdErr.Code)
}
