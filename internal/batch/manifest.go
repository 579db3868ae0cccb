// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/margincrop/pkg/types"
)

// Manifest is the on-disk description of a batch: shared margins, a
// destination, and the list of inputs. Individual inputs may override the
// shared margins.
type Manifest struct {
	Margins types.MarginSpec `yaml:"margins"`
	Output  ManifestOutput   `yaml:"output"`
	Inputs  []ManifestInput  `yaml:"inputs"`
}

// ManifestOutput names the destination directory and filename suffix.
type ManifestOutput struct {
	Dir    string `yaml:"dir,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
}

// ManifestInput is one document in the batch.
type ManifestInput struct {
	Path    string            `yaml:"path"`
	Margins *types.MarginSpec `yaml:"margins,omitempty"`
}

// ReadManifest loads a batch manifest from a YAML file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(m.Inputs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no inputs", path)
	}
	for i, in := range m.Inputs {
		if in.Path == "" {
			return nil, fmt.Errorf("manifest %s: input %d has no path", path, i+1)
		}
	}
	return &m, nil
}

// Jobs builds the job list described by the manifest. Empty output fields
// fall back to the given directory and suffix.
func (m *Manifest) Jobs(fallbackDir, fallbackSuffix string) []*types.Job {
	dir := m.Output.Dir
	if dir == "" {
		dir = fallbackDir
	}
	suffix := m.Output.Suffix
	if suffix == "" {
		suffix = fallbackSuffix
	}

	jobs := make([]*types.Job, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		margins := m.Margins
		if in.Margins != nil {
			margins = *in.Margins
		}
		jobs = append(jobs, types.NewJob(in.Path, dir, suffix, margins))
	}
	return jobs
}
