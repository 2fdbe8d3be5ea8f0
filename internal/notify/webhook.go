package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// WebhookNotifier posts alert summaries to a webhook as Slack-style block
// messages.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a notifier that posts to the given webhook URL.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookMessage struct {
	Blocks []webhookBlock `json:"blocks"`
}

type webhookBlock struct {
	Type string       `json:"type"`
	Text *webhookText `json:"text,omitempty"`
}

type webhookText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the summary to the configured webhook. It returns nil without
// making a request when the summary has nothing to report.
func (w *WebhookNotifier) Notify(ctx context.Context, summary *models.EvaluationSummary) error {
	if emptySummary(summary) {
		return nil
	}

	body, err := json.Marshal(w.buildMessage(summary))
	if err != nil {
		return fmt.Errorf("marshaling webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (w *WebhookNotifier) buildMessage(summary *models.EvaluationSummary) webhookMessage {
	blocks := []webhookBlock{
		{
			Type: "header",
			Text: &webhookText{Type: "plain_text", Text: "gsda Alert Summary"},
		},
	}

	entries := 0
	section := func(text string) {
		if entries > 0 {
			blocks = append(blocks, webhookBlock{Type: "divider"})
		}
		blocks = append(blocks, webhookBlock{
			Type: "section",
			Text: &webhookText{Type: "mrkdwn", Text: text},
		})
		entries++
	}

	for _, src := range summary.Sources {
		for _, v := range src.Violations {
			section(fmt.Sprintf("%s *[%s]* %s: %s\n_%s_",
				severityEmoji(v.Severity),
				v.Severity,
				v.SourceName,
				v.Message(),
				v.Timestamp.Format("2006-01-02 15:04 UTC"),
			))
		}
	}
	for _, f := range summary.Failures {
		section(fmt.Sprintf("⚠️ *[FETCH_FAILURE]* %s: %s", f.SourceName, f.Reason))
	}

	return webhookMessage{Blocks: blocks}
}

func severityEmoji(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "\U0001f534"
	case models.SeverityHigh:
		return "\U0001f7e0"
	case models.SeverityMedium:
		return "\U0001f7e1"
	case models.SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
