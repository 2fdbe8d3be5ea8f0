package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// InitConfig holds the parameters for initializing a monitor workspace.
type InitConfig struct {
	BasePath string
	Driver   string
	DSN      string
	Interval int
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// WorkspaceInitializer scaffolds a directory for running the monitor:
// a .sheetconfig with commented defaults, the data directory for the csv
// backend, and an example bulk-onboarding file.
type WorkspaceInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type workspaceInitializer struct{}

// NewWorkspaceInitializer creates a new WorkspaceInitializer.
func NewWorkspaceInitializer() WorkspaceInitializer {
	return &workspaceInitializer{}
}

const sheetconfigTemplate = `# KPI monitor configuration.
storage:
  driver: {{ .Driver }}
{{- if eq .Driver "csv" }}
  path: data
{{- else }}
  dsn: {{ .DSN }}
{{- end }}

check:
  # Minutes between scheduled checks. One of: 5, 15, 30.
  interval_minutes: {{ .Interval }}

http:
  addr: ":8080"

notifications:
  enabled: false
  # min_severity: MEDIUM
  # email:
  #   to: [ops@example.com]
  #   host: smtp.example.com
  #   port: 587
  #   from: kpi-monitor@example.com
  # webhook:
  #   url: https://hooks.slack.com/services/XXX/YYY/ZZZ
  # command: ./alert.sh
`

const sourcesExample = `# Example bulk-onboarding file for 'gsda onboard --file'.
# Each entry names a source, its CSV location, the KPI columns to track,
# and the minimum acceptable value per KPI.
- name: q3-sales
  url: https://example.com/exports/q3-sales.csv
  kpis: [Revenue, Units Sold]
  thresholds:
    Revenue: 50000
    Units Sold: 1200
`

const gitignoreContent = `data/
*.db
`

// Init scaffolds the monitor workspace. It is safe to run on existing
// workspaces: files and directories that already exist are skipped and
// not overwritten.
func (wi *workspaceInitializer) Init(config InitConfig) (*InitResult, error) {
	result := &InitResult{}

	if config.Driver == "" {
		config.Driver = "csv"
	}
	if config.Interval == 0 {
		config.Interval = 15
	}

	if !validDrivers[config.Driver] {
		return nil, fmt.Errorf("storage driver %q is invalid, must be one of: csv, sqlite, postgres", config.Driver)
	}
	if config.Driver != "csv" && config.DSN == "" {
		return nil, fmt.Errorf("the %s driver requires a dsn", config.Driver)
	}
	if err := ValidateInterval(config.Interval); err != nil {
		return nil, err
	}

	dirs := []string{config.BasePath}
	if config.Driver == "csv" {
		dirs = append(dirs, filepath.Join(config.BasePath, "data"))
	}
	for _, dir := range dirs {
		created, err := ensureDir(dir)
		if err != nil {
			return nil, fmt.Errorf("initializing workspace: creating directory %s: %w", dir, err)
		}
		if created {
			result.Created = append(result.Created, dir)
		} else {
			result.Skipped = append(result.Skipped, dir)
		}
	}

	configPath := filepath.Join(config.BasePath, ".sheetconfig")
	if err := writeFileIfNotExists(configPath, func() ([]byte, error) {
		return renderSheetconfig(config)
	}, result); err != nil {
		return nil, err
	}

	examplePath := filepath.Join(config.BasePath, "sources.example.yaml")
	if err := writeFileIfNotExists(examplePath, func() ([]byte, error) {
		return []byte(sourcesExample), nil
	}, result); err != nil {
		return nil, err
	}

	gitignorePath := filepath.Join(config.BasePath, ".gitignore")
	if err := writeFileIfNotExists(gitignorePath, func() ([]byte, error) {
		return []byte(gitignoreContent), nil
	}, result); err != nil {
		return nil, err
	}

	return result, nil
}

// ensureDir creates a directory if it does not exist. Returns true if created.
func ensureDir(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileIfNotExists writes content from contentFn if the file does not
// exist. It records created/skipped in the result.
func writeFileIfNotExists(path string, contentFn func() ([]byte, error), result *InitResult) error {
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}
	content, err := contentFn()
	if err != nil {
		return fmt.Errorf("initializing workspace: generating content for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}

func renderSheetconfig(config InitConfig) ([]byte, error) {
	tmpl, err := template.New("sheetconfig").Parse(sheetconfigTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing sheetconfig template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("rendering sheetconfig template: %w", err)
	}
	return buf.Bytes(), nil
}
