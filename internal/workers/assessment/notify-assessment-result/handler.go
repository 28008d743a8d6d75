package notifyassessmentresult

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/common/metrics"
	"umkm-assessment-workers/internal/store"

	commonaws "umkm-assessment-workers/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "notify-assessment-result"

// SESService and SNSService mirror the delivery surface this worker uses, so
// tests can substitute mocks. The common AWS client wrappers satisfy both.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

var (
	_ SESService = (*commonaws.SESClient)(nil)
	_ SNSService = (*commonaws.SNSClient)(nil)
)

// Handler emails (and optionally texts) the scored result summary to the
// business owner.
type Handler struct {
	config      *Config
	assessments *store.AssessmentStore
	sesClient   SESService
	snsClient   SNSService
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(config *Config, assessments *store.AssessmentStore, log logger.Logger) (*Handler, error) {
	ctx := context.Background()
	sesClient, err := commonaws.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}
	return NewHandlerWithClients(config, assessments, sesClient, snsClient, log), nil
}

// NewHandlerWithClients injects the notification clients directly.
func NewHandlerWithClients(config *Config, assessments *store.AssessmentStore, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		assessments: assessments,
		sesClient:   sesClient,
		snsClient:   snsClient,
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
	output := &Output{
		NotificationID: uuid.New().String(),
		AssessmentID:   input.AssessmentID,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if input.RecipientEmail == "" && (input.RecipientPhone == "" || !h.config.SMSEnabled) {
		h.logger.Warn("no reachable recipient, skipping notification", map[string]interface{}{
			"assessmentId": input.AssessmentID,
		})
		output.Status = StatusSkipped
		return output, nil
	}

	score, err := h.assessments.GetScore(ctx, input.AssessmentID)
	if err != nil {
		return nil, err
	}

	subject, body := renderResultMessage(score)

	if input.RecipientEmail != "" {
		_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(h.config.SenderEmail),
			Destination: &sestypes.Destination{
				ToAddresses: []string{input.RecipientEmail},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError("email", err)
		}
		output.Channels = append(output.Channels, "email")
	}

	if h.config.SMSEnabled && input.RecipientPhone != "" {
		_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
			PhoneNumber: aws.String(input.RecipientPhone),
			Message:     aws.String(smsSummary(score)),
		})
		if err != nil {
			// Email already went out; report partial delivery rather than
			// failing the job and double-sending on retry.
			if len(output.Channels) > 0 {
				h.logger.Warn("sms delivery failed after email succeeded", map[string]interface{}{
					"assessmentId": input.AssessmentID,
					"error":        err.Error(),
				})
				output.Status = StatusPartial
				return output, nil
			}
			return nil, commonerrors.NewNotificationSendFailedError("sms", err)
		}
		output.Channels = append(output.Channels, "sms")
	}

	output.Status = StatusSent
	h.logger.Info("result notification sent", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"channels":     output.Channels,
	})
	return output, nil
}

// Execute exposes the job body for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func renderResultMessage(score *assessment.AssessmentScore) (subject, body string) {
	subject = fmt.Sprintf("Hasil Asesmen UMKM Anda: %.0f%%", score.Percentage)

	var b strings.Builder
	fmt.Fprintf(&b, "Asesmen Anda telah selesai dinilai.\n\n")
	fmt.Fprintf(&b, "Skor keseluruhan: %.1f dari %.1f (%.0f%%)\n", score.TotalScore, score.MaxPossibleScore, score.Percentage)
	fmt.Fprintf(&b, "Klasifikasi usaha: %s\n", score.BusinessLevel)
	fmt.Fprintf(&b, "Tingkat keyakinan: %d%%\n\n", score.Confidence)
	if len(score.Categories) > 0 {
		b.WriteString("Rincian per kategori:\n")
		for _, cs := range score.Categories {
			fmt.Fprintf(&b, "- %s: %.0f%% (%s)\n", cs.Category, cs.Percentage, cs.Level)
		}
	}
	return subject, b.String()
}

func smsSummary(score *assessment.AssessmentScore) string {
	return fmt.Sprintf("Hasil asesmen UMKM: %.0f%%, klasifikasi %s. Detail lengkap dikirim melalui email.",
		score.Percentage, score.BusinessLevel)
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
