// Package config defines the configuration surface consumed by the engine.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// SheetsPlaceholder is the unconfigured value shipped in sample configs.
const SheetsPlaceholder = "PASTE_YOUR_WEB_APP_URL_HERE"

// Config is the experiment configuration.
type Config struct {
	Angles              []int                `yaml:"angles" json:"angles" mapstructure:"angles"`
	Pairing             domain.PairingPolicy `yaml:"pairing" json:"pairing" mapstructure:"pairing"`
	RepetitionsPerAngle int                  `yaml:"repetitions_per_angle" json:"repetitions_per_angle" mapstructure:"repetitions_per_angle"`
	RepetitionsPerPair  int                  `yaml:"repetitions_per_pair" json:"repetitions_per_pair" mapstructure:"repetitions_per_pair"`
	// MaxMainTrials caps the all-pairs main list. Zero disables the cap.
	MaxMainTrials     int  `yaml:"max_main_trials" json:"max_main_trials" mapstructure:"max_main_trials"`
	PracticeTrials    int  `yaml:"practice_trials" json:"practice_trials" mapstructure:"practice_trials"`
	BalanceMirrorSide bool `yaml:"balance_mirror_side" json:"balance_mirror_side" mapstructure:"balance_mirror_side"`

	FixationMs    int `yaml:"fixation_ms" json:"fixation_ms" mapstructure:"fixation_ms"`
	MaxResponseMs int `yaml:"max_response_ms" json:"max_response_ms" mapstructure:"max_response_ms"`
	InterTrialMs  int `yaml:"inter_trial_ms" json:"inter_trial_ms" mapstructure:"inter_trial_ms"`

	SameKey   string `yaml:"same_key" json:"same_key" mapstructure:"same_key"`
	MirrorKey string `yaml:"mirror_key" json:"mirror_key" mapstructure:"mirror_key"`

	Version       string `yaml:"version" json:"version" mapstructure:"version"`
	SheetsURL     string `yaml:"sheets_url" json:"sheets_url" mapstructure:"sheets_url"`
	SinkTimeoutMs int    `yaml:"sink_timeout_ms" json:"sink_timeout_ms" mapstructure:"sink_timeout_ms"`
}

// Default returns the classic seven-angle design: 140 main trials, 10 practice trials.
func Default() Config {
	return Config{
		Angles:              []int{0, 30, 60, 90, 120, 150, 180},
		Pairing:             domain.PairingSameAngle,
		RepetitionsPerAngle: 10,
		RepetitionsPerPair:  2,
		PracticeTrials:      10,
		FixationMs:          500,
		MaxResponseMs:       3500,
		InterTrialMs:        1000,
		SameKey:             "f",
		MirrorKey:           "j",
		Version:             domain.DefaultSchemaVersion,
		SinkTimeoutMs:       10000,
	}
}

// Load reads a configuration file (YAML or JSON) on top of Default.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return cfg, nil
}

// Apply decodes overrides (e.g. a JSON request body) onto a copy of cfg.
// Unknown keys are rejected.
func Apply(cfg Config, overrides map[string]any) (Config, error) {
	out := cfg
	out.Angles = append([]int(nil), cfg.Angles...)
	if len(overrides) == 0 {
		return out, nil
	}
	if _, ok := overrides["angles"]; ok {
		out.Angles = nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(overrides); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	return out, nil
}

// Fixation is the fixation hold duration.
func (c Config) Fixation() time.Duration {
	return time.Duration(c.FixationMs) * time.Millisecond
}

// MaxResponse is the response window length.
func (c Config) MaxResponse() time.Duration {
	return time.Duration(c.MaxResponseMs) * time.Millisecond
}

// InterTrial is the inter-trial interval.
func (c Config) InterTrial() time.Duration {
	return time.Duration(c.InterTrialMs) * time.Millisecond
}

// SinkTimeout bounds a single sink submission.
func (c Config) SinkTimeout() time.Duration {
	if c.SinkTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SinkTimeoutMs) * time.Millisecond
}

// SheetsConfigured reports whether a real remote-sheet URL is set.
func (c Config) SheetsConfigured() bool {
	return c.SheetsURL != "" && !strings.Contains(c.SheetsURL, SheetsPlaceholder)
}

// SchemaVersion returns the version tag, defaulting when unset.
func (c Config) SchemaVersion() string {
	if c.Version == "" {
		return domain.DefaultSchemaVersion
	}
	return c.Version
}

// Validate checks the configuration before any trial runs.
// All violations are reported together.
func (c Config) Validate() error {
	var errs []error

	if len(c.Angles) == 0 {
		errs = append(errs, ErrEmptyAngleSet)
	}
	seen := make(map[int]bool, len(c.Angles))
	for _, a := range c.Angles {
		if a < 0 || a >= 360 {
			errs = append(errs, fmt.Errorf("%w: %d", ErrAngleRange, a))
		}
		if seen[a] {
			errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicateAngle, a))
		}
		seen[a] = true
	}

	switch c.Pairing {
	case domain.PairingSameAngle:
		if c.RepetitionsPerAngle <= 0 {
			errs = append(errs, fmt.Errorf("%w: repetitions_per_angle=%d", ErrNonPositiveRepetitions, c.RepetitionsPerAngle))
		}
	case domain.PairingAllPairs:
		if c.RepetitionsPerPair <= 0 {
			errs = append(errs, fmt.Errorf("%w: repetitions_per_pair=%d", ErrNonPositiveRepetitions, c.RepetitionsPerPair))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPairing, c.Pairing))
	}

	if c.MaxMainTrials < 0 || c.MaxMainTrials%2 != 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidTrialCap, c.MaxMainTrials))
	}
	if c.PracticeTrials < 2 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrPracticeCount, c.PracticeTrials))
	}

	if c.MaxResponseMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_response_ms=%d", ErrInvalidDuration, c.MaxResponseMs))
	}
	if c.FixationMs < 0 {
		errs = append(errs, fmt.Errorf("%w: fixation_ms=%d", ErrInvalidDuration, c.FixationMs))
	}
	if c.InterTrialMs < 0 {
		errs = append(errs, fmt.Errorf("%w: inter_trial_ms=%d", ErrInvalidDuration, c.InterTrialMs))
	}

	same := strings.ToLower(strings.TrimSpace(c.SameKey))
	mirror := strings.ToLower(strings.TrimSpace(c.MirrorKey))
	if same == "" || mirror == "" || same == mirror {
		errs = append(errs, fmt.Errorf("%w: same=%q mirror=%q", ErrKeyMapping, c.SameKey, c.MirrorKey))
	}

	return errors.Join(errs...)
}
