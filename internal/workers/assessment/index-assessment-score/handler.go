package indexassessmentscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/common/metrics"
	"umkm-assessment-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const TaskType = "index-assessment-score"

// Handler projects a persisted assessment score into the analytics index so
// the platform's segmentation dashboards can query score distributions.
type Handler struct {
	config      *Config
	assessments *store.AssessmentStore
	es          *elasticsearch.Client
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(config *Config, assessments *store.AssessmentStore, es *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		assessments: assessments,
		es:          es,
		errors:      commonerrors.NewErrorHandler(scoped),
		logger:      scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	a, err := h.assessments.GetByID(ctx, input.AssessmentID)
	if err != nil {
		return nil, err
	}
	score, err := h.assessments.GetScore(ctx, input.AssessmentID)
	if err != nil {
		return nil, err
	}

	doc := scoreDocument{
		AssessmentID:     score.AssessmentID,
		UserID:           a.UserID,
		TemplateID:       a.TemplateID,
		TotalScore:       score.TotalScore,
		MaxPossibleScore: score.MaxPossibleScore,
		Percentage:       score.Percentage,
		BusinessLevel:    string(score.BusinessLevel),
		Confidence:       score.Confidence,
		CategoryScores:   make(map[string]float64, len(score.Categories)),
		IndexedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	for _, cs := range score.Categories {
		doc.CategoryScores[cs.Category] = cs.Percentage
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index, err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: score.AssessmentID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		return nil, commonerrors.NewSearchIndexFailedError(h.config.Index,
			fmt.Errorf("index response %s: %s", res.Status(), detail))
	}

	h.logger.Info("score indexed", map[string]interface{}{
		"assessmentId": score.AssessmentID,
		"index":        h.config.Index,
	})

	return &Output{
		AssessmentID: score.AssessmentID,
		Index:        h.config.Index,
		Indexed:      true,
	}, nil
}

// Execute exposes the job body for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
