package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// CommandNotifier runs a configured shell command once per evaluation
// summary, writing the summary JSON to the command's stdin. The run ID and
// violation count are exported as GSDA_RUN_ID and GSDA_VIOLATIONS.
type CommandNotifier struct {
	command string
	timeout time.Duration
}

// NewCommandNotifier creates a notifier that pipes summaries through the
// given shell command.
func NewCommandNotifier(command string) *CommandNotifier {
	return &CommandNotifier{
		command: command,
		timeout: 30 * time.Second,
	}
}

// Notify runs the command with the summary JSON on stdin. It returns nil
// without running anything when the summary has nothing to report.
func (n *CommandNotifier) Notify(ctx context.Context, summary *models.EvaluationSummary) error {
	if emptySummary(summary) {
		return nil
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", n.command)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(os.Environ(),
		"GSDA_RUN_ID="+summary.RunID,
		"GSDA_VIOLATIONS="+strconv.Itoa(summary.Total),
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("notify command failed: %s: %w", msg, err)
		}
		return fmt.Errorf("notify command failed: %w", err)
	}
	return nil
}
