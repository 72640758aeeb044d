// Package config loads engine settings from YAML. The file shape mirrors
// the subsystems: logging, the optimizer loop, the proposer model and the
// run journal. Every section is optional; omitted values take the
// documented defaults.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/optimizers"
)

// Settings is the root of the YAML configuration file.
type Settings struct {
	Logging   LoggingSettings   `yaml:"logging,omitempty"`
	Optimizer optimizers.Config `yaml:"optimizer,omitempty"`
	Proposer  ProposerSettings  `yaml:"proposer,omitempty"`
	Journal   JournalSettings   `yaml:"journal,omitempty"`
}

// LoggingSettings controls log severity and destinations.
type LoggingSettings struct {
	// Level is one of DEBUG, INFO, WARN, ERROR, FATAL.
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	// File adds a JSON-lines log file next to console output.
	File string `yaml:"file,omitempty"`
}

// ProposerSettings configures the LLM-backed instruction proposer. An empty
// model disables the proposer entirely.
type ProposerSettings struct {
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	MaxTokens int64  `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
}

// JournalSettings configures run history persistence. An empty path
// disables the journal.
type JournalSettings struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns settings with every subsystem at its documented default.
func Default() Settings {
	return Settings{
		Logging:   LoggingSettings{Level: "INFO"},
		Optimizer: optimizers.DefaultConfig(),
	}
}

var settingsValidator = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a YAML settings file. Sections absent from the
// file keep their defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrap(err, errors.InvalidConfig, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML settings.
func Parse(data []byte) (Settings, error) {
	settings := Default()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, errors.Wrap(err, errors.InvalidConfig, "failed to parse config file")
	}

	if err := settingsValidator.Struct(settings); err != nil {
		return Settings{}, errors.Wrap(err, errors.InvalidConfig, "invalid settings")
	}
	if err := settings.Optimizer.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
