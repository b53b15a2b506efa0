// Package seed loads the default pipeline stage template applied to newly
// provisioned clinics.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_stages.yaml
var defaultTemplate []byte

type template struct {
	Stages []string `yaml:"stages"`
}

// LoadStageTemplate returns the ordered default stage names. When path is
// empty the embedded template is used; otherwise the file at path overrides
// it, letting operators customize provisioning without a rebuild.
func LoadStageTemplate(path string) ([]string, error) {
	raw := defaultTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read stage template: %w", err)
		}
		raw = data
	}

	var tpl template
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return nil, fmt.Errorf("parse stage template: %w", err)
	}
	if len(tpl.Stages) == 0 {
		return nil, fmt.Errorf("stage template defines no stages")
	}
	for i, name := range tpl.Stages {
		if name == "" {
			return nil, fmt.Errorf("stage template entry %d is empty", i)
		}
	}
	return tpl.Stages, nil
}
