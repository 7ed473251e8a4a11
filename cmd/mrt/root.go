package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/aretw0/mrt"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "MRT"

// DefaultConfigFile is read when --config is not given; it may be absent.
const DefaultConfigFile = "mrt.yaml"

// settings merges flags and MRT_* environment variables. Set by PersistentPreRunE.
var settings *viper.Viper

var rootCmd = &cobra.Command{
	Use:           "mrt",
	Short:         "Mental rotation task runner",
	Long:          `mrt presents a seeded, reproducible sequence of mental rotation trials, records reaction times and accuracy, and submits the results.`,
	Version:       strings.TrimSpace(mrt.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		settings = v
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Experiment configuration file (YAML or JSON, default "+DefaultConfigFile+")")
	rootCmd.PersistentFlags().String("sheets-url", "", "Web app URL results are posted to")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

// loadSettings binds the command's flags and the environment.
// A flag named foo-bar reads MRT_FOO_BAR when not given.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if f := cmd.Flags().Lookup("sheets-url"); f != nil {
		if err := v.BindPFlag("sheets_url", f); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env: %w", err)
		}
	}
	return v, nil
}

// configKeys lists the experiment settings that MRT_* variables may override.
func configKeys() []string {
	t := reflect.TypeOf(config.Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// experimentConfig is loadExperimentConfig followed by validation.
func experimentConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := loadExperimentConfig(v)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadExperimentConfig reads the configuration file, then applies environment
// and flag overrides.
func loadExperimentConfig(v *viper.Viper) (config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		path = DefaultConfigFile
	} else if _, err := os.Stat(path); err != nil {
		return config.Config{}, fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]any{}
	for _, key := range configKeys() {
		if !v.IsSet(key) {
			continue
		}
		val := v.Get(key)
		if s, ok := val.(string); ok && key == "angles" {
			parts := strings.Split(s, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			val = parts
		}
		overrides[key] = val
	}
	return config.Apply(cfg, overrides)
}

// errInvalid marks a failure already reported to the user.
var errInvalid = errors.New("invalid configuration")
