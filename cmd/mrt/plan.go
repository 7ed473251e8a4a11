package main

import (
	"fmt"
	"os"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/factory"
	"github.com/aretw0/mrt/pkg/identity"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the trial order of an identity",
	Long:  `Generates the practice and main trial lists exactly as a session for the identity would, without running it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}
		id := identity.Normalize(domain.Identity{
			ParticipantID: settings.GetString("pid"),
			SessionCode:   settings.GetString("code"),
		})
		if id.SeedKey() == "" {
			return fmt.Errorf("plan requires --pid or --code")
		}
		plan, err := factory.BuildPlan(cfg, id.SeedKey())
		if err != nil {
			return err
		}
		return cli.PrintPlan(os.Stdout, plan, settings.GetString("format"))
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("pid", "", "Participant ID")
	planCmd.Flags().String("code", "", "Session code")
	planCmd.Flags().StringP("format", "f", "text", "Output format: text, json or csv")
}
