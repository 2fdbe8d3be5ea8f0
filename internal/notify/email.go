package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// sendMail is swapped in tests.
var sendMail = smtp.SendMail

// EmailNotifier mails alert summaries to the configured recipients.
type EmailNotifier struct {
	host       string
	port       int
	from       string
	username   string
	password   string
	recipients []string
}

// NewEmailNotifier creates a notifier from the notification config. With a
// username set it authenticates with PLAIN auth, otherwise it sends
// unauthenticated.
func NewEmailNotifier(cfg models.NotifyConfig) *EmailNotifier {
	return &EmailNotifier{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		from:       cfg.SMTPFrom,
		username:   cfg.SMTPUsername,
		password:   cfg.SMTPPassword,
		recipients: cfg.Emails,
	}
}

// emailTemplate is the Go text/template for the plain-text alert body.
var emailTemplate = template.Must(template.New("alert").
	Funcs(template.FuncMap{"formatValue": models.FormatValue}).
	Parse(`KPI monitoring run {{.RunID}} finished at {{.StartedAt.Format "2006-01-02 15:04 UTC"}}.

Checked {{.Checked}} sources, found {{.Total}} violations.
{{range .Sources}}
{{.SourceName}} ({{.Count}} violations)
{{- range .Violations}}
  [{{.Severity}}] {{.MetricName}} = {{formatValue .Value}}, threshold {{formatValue .Threshold}}, row {{.RowRef}}
{{- end}}
{{end}}
{{- if .Failures}}
Sources that could not be checked:
{{- range .Failures}}
  {{.SourceName}}: {{.Reason}}
{{- end}}
{{end -}}
`))

// Notify mails the summary. It returns nil without connecting when the
// summary has nothing to report.
func (n *EmailNotifier) Notify(_ context.Context, summary *models.EvaluationSummary) error {
	if emptySummary(summary) {
		return nil
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, summary); err != nil {
		return fmt.Errorf("rendering alert email: %w", err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject(summary))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body.String())

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	if err := sendMail(addr, auth, n.from, n.recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending alert email: %w", err)
	}
	return nil
}

func subject(summary *models.EvaluationSummary) string {
	if summary.Total > 0 {
		return fmt.Sprintf("KPI alert: %d violations across %d sources", summary.Total, len(summary.Sources))
	}
	return fmt.Sprintf("KPI monitor: %d sources unreachable", len(summary.Failures))
}
