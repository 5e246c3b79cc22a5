package automation

import (
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

//go:embed workflows.yaml
var defaultWorkflows []byte

type workflowFile struct {
	Workflows []models.AutomationWorkflow `yaml:"workflows"`
}

// ParseWorkflows decodes a YAML workflow document.
func ParseWorkflows(data []byte) ([]models.AutomationWorkflow, error) {
	var file workflowFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding workflows: %w", err)
	}
	return file.Workflows, nil
}

// DefaultWorkflows returns the embedded default workflow set.
func DefaultWorkflows() []models.AutomationWorkflow {
	wfs, err := ParseWorkflows(defaultWorkflows)
	if err != nil {
		panic(fmt.Sprintf("automation: embedded workflows: %v", err))
	}
	return wfs
}

// LoadWorkflows reads workflows from path, or returns the defaults when path
// is empty.
func LoadWorkflows(path string) ([]models.AutomationWorkflow, error) {
	if path == "" {
		return DefaultWorkflows(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflows file: %w", err)
	}
	return ParseWorkflows(data)
}

// ValidateWorkflows checks every workflow and returns all violations
// combined, including duplicate ids.
func ValidateWorkflows(wfs []models.AutomationWorkflow) error {
	var errs error
	seen := make(map[string]bool, len(wfs))
	for _, wf := range wfs {
		if err := validateWorkflow(wf); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("workflow %q: %w", wf.Name, err))
		}
		if wf.ID == "" {
			continue
		}
		if seen[wf.ID] {
			errs = multierr.Append(errs, fmt.Errorf("workflow %q: duplicate id %s", wf.Name, wf.ID))
		}
		seen[wf.ID] = true
	}
	return errs
}
