package indexassessmentscore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// roundTripFunc fakes the Elasticsearch transport.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newHandlerFixture(t *testing.T, transport roundTripFunc) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	es, err := elasticsearch.NewClient(elasticsearch.Config{Transport: transport})
	require.NoError(t, err)

	handler := NewHandler(
		&Config{Timeout: 15 * time.Second, Index: "assessment-scores"},
		store.NewAssessmentStore(db),
		es,
		logger.NewTestLogger(t),
	)
	return handler, mock
}

func expectScoredAssessment(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "template_id", "status", "time_spent_seconds"}).
			AddRow(id, "user-1", "tpl-1", "completed", 300))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assessment_responses`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "section_id", "answer", "valid"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT detail FROM assessment_scores WHERE assessment_id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"detail"}).AddRow([]byte(`{
			"assessmentId": "` + id + `",
			"totalScore": 300,
			"maxPossibleScore": 400,
			"percentage": 75,
			"businessLevel": "medium",
			"confidence": 85,
			"categoryScores": [
				{"category": "digital", "percentage": 75, "level": "high"},
				{"category": "finance", "percentage": 40, "level": "medium"}
			]
		}`)))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesScoreDocument(t *testing.T) {
	var captured *http.Request
	var capturedBody []byte

	handler, mock := newHandlerFixture(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		if req.Body != nil {
			capturedBody, _ = io.ReadAll(req.Body)
		}
		return esResponse(201, `{"result": "created"}`), nil
	})
	expectScoredAssessment(mock, "assess-1")

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-1"})

	require.NoError(t, err)
	assert.Equal(t, "assess-1", output.AssessmentID)
	assert.Equal(t, "assessment-scores", output.Index)
	assert.True(t, output.Indexed)

	require.NotNil(t, captured)
	assert.Equal(t, "/assessment-scores/_doc/assess-1", captured.URL.Path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(capturedBody, &doc))
	assert.Equal(t, "assess-1", doc["assessmentId"])
	assert.Equal(t, "user-1", doc["userId"])
	assert.Equal(t, "medium", doc["businessLevel"])
	assert.Equal(t, 75.0, doc["percentage"])
	categories, ok := doc["categoryScores"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 75.0, categories["digital"])
	assert.Equal(t, 40.0, categories["finance"])
	assert.NotEmpty(t, doc["indexedAt"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Path Tests
// ==========================

func TestHandler_Execute_IndexRejection(t *testing.T) {
	handler, mock := newHandlerFixture(t, func(req *http.Request) (*http.Response, error) {
		return esResponse(400, `{"error": {"reason": "mapping conflict"}}`), nil
	})
	expectScoredAssessment(mock, "assess-2")

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-2"})

	assert.Nil(t, output)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeSearchIndexFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "mapping conflict")
}

func TestHandler_Execute_ScoreMissing(t *testing.T) {
	handler, mock := newHandlerFixture(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no index request expected when the score is missing")
		return nil, nil
	})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, template_id, status, time_spent_seconds`)).
		WithArgs("assess-unscored").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "template_id", "status", "time_spent_seconds"}).
			AddRow("assess-unscored", "user-1", "tpl-1", "completed", 300))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assessment_responses`)).
		WithArgs("assess-unscored").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "section_id", "answer", "valid"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT detail FROM assessment_scores WHERE assessment_id = $1`)).
		WithArgs("assess-unscored").
		WillReturnRows(sqlmock.NewRows([]string{"detail"}))

	output, err := handler.Execute(context.Background(), &Input{AssessmentID: "assess-unscored"})

	assert.Nil(t, output)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeScoreNotFound, stdErr.Code)
}
