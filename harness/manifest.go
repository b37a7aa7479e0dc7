package harness

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const ManifestFile = "trial.yaml"

// Manifest records what a trial ran, so a finished trial directory can be
// inspected or replayed by hand.
type Manifest struct {
	Trial     int        `yaml:"trial"`
	Tag       string     `yaml:"tag,omitempty"`
	Profile   Profile    `yaml:"profile"`
	Overrides []Override `yaml:"overrides,omitempty"`
	Candidate string     `yaml:"candidate"`
	Baseline  string     `yaml:"baseline"`

	// CandidateArgv is the candidate command split into words, for
	// starting the engine by hand without the runner.
	CandidateArgv []string  `yaml:"candidate_argv"`
	Command       string    `yaml:"command"`
	Args          []string  `yaml:"args"`
	RunnerErr     string    `yaml:"runner_error,omitempty"`
	Outcome       string    `yaml:"outcome"`
	Started       time.Time `yaml:"started"`
	Duration      string    `yaml:"duration"`
}

func WriteManifest(dir string, m *Manifest) error {
	bts, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), bts, 0o644)
}

func ReadManifest(dir string) (*Manifest, error) {
	bts, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(bts, m); err != nil {
		return nil, err
	}
	return m, nil
}
