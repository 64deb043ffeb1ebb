package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// jobFile is the YAML shape of a job description.
type jobFile struct {
	Executable       string        `yaml:"executable"`
	Arguments        []string      `yaml:"arguments"`
	Script           string        `yaml:"script"`
	Queue            string        `yaml:"queue"`
	WorkingDirectory string        `yaml:"working_directory"`
	Stdout           string        `yaml:"stdout"`
	Stderr           string        `yaml:"stderr"`
	MaxRuntime       time.Duration `yaml:"max_runtime"`
}

// loadJobFile reads and validates a YAML job description.
func loadJobFile(path string) (adaptor.JobDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return adaptor.JobDescription{}, fmt.Errorf("read job file %s: %w", path, err)
	}

	var jf jobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return adaptor.JobDescription{}, fmt.Errorf("parse job file %s: %w", path, err)
	}
	if jf.Script == "" && jf.Executable == "" {
		return adaptor.JobDescription{}, fmt.Errorf("job file %s: either script or executable is required", path)
	}

	return adaptor.JobDescription{
		Executable:       jf.Executable,
		Arguments:        jf.Arguments,
		Script:           jf.Script,
		Queue:            jf.Queue,
		WorkingDirectory: jf.WorkingDirectory,
		Stdout:           jf.Stdout,
		Stderr:           jf.Stderr,
		MaxRuntime:       jf.MaxRuntime,
	}, nil
}
