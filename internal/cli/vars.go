package cli

import (
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/core"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/notify"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Monitor service instances, set during app initialization in app.go.
var (
	Lifecycle core.Lifecycle
	Evaluator core.Evaluator
	Registry  core.Registry
	Events    core.EventLog
	Notifier  notify.Notifier
	Cfg       *models.Config
)
