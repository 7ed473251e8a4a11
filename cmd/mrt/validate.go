package main

import (
	"fmt"
	"os"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Check an experiment configuration",
	Long:  `Loads the configuration (with MRT_* overrides) and reports every violation before any trial runs.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			settings.Set("config", args[0])
		}
		cfg, err := loadExperimentConfig(settings)
		if err != nil {
			return err
		}
		verr := cfg.Validate()
		cli.ReportValidation(os.Stdout, verr)
		if verr != nil {
			return errInvalid
		}
		fmt.Printf("%d angles, %s pairing, %d practice trials.\n", len(cfg.Angles), cfg.Pairing, cfg.PracticeTrials)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
