package notifyassessmentresult

// Input carries the job variables for a result notification.
type Input struct {
	AssessmentID   string `json:"assessmentId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
}

// Notification delivery statuses.
const (
	StatusSent    = "sent"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
)

// Output reports the delivery outcome per channel.
type Output struct {
	NotificationID string   `json:"notificationId"`
	AssessmentID   string   `json:"assessmentId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}
