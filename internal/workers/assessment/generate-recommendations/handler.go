package generaterecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/common/metrics"
	"umkm-assessment-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "generate-recommendations"

// Handler resolves the recommendation list for a scored assessment from the
// template's rules, the shared category rules and the catalog's score-band
// thresholds.
type Handler struct {
	config      *Config
	templates   *store.TemplateStore
	assessments *store.AssessmentStore
	rules       *store.RuleStore
	catalog     assessment.Catalog
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(
	config *Config,
	templates *store.TemplateStore,
	assessments *store.AssessmentStore,
	rules *store.RuleStore,
	catalog assessment.Catalog,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		templates:   templates,
		assessments: assessments,
		rules:       rules,
		catalog:     catalog,
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

	tpl, err := h.templates.GetByID(ctx, a.TemplateID)
	if err != nil {
		return nil, err
	}

	sharedRules, err := h.rules.LoadRecommendationRules(ctx, tpl.Category)
	if err != nil {
		return nil, err
	}
	recRules := append(append([]assessment.RecommendationRule{}, tpl.RecommendationRules...), sharedRules...)

	generator := assessment.NewGenerator(recRules, h.catalog)
	recs := generator.Generate(a, score)

	metrics.RecommendationsGenerated.WithLabelValues(tpl.Category).Observe(float64(len(recs)))
	h.logger.Info("recommendations generated", map[string]interface{}{
		"assessmentId": a.ID,
		"count":        len(recs),
	})

	return &Output{
		AssessmentID:    a.ID,
		Recommendations: recs,
		Count:           len(recs),
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
