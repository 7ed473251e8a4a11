package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Print the phase machine as a Mermaid flowchart",
	Long:  `Prints the trial phase machine with the configured timings. Given a stored session, its current phase is highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if len(args) > 0 {
			opts := backendOptions()
			if opts.Store == "" {
				return errors.New("a session ID requires --store")
			}
			cfg.SheetsURL = ""
			opts.ResultsLog = ""
			backends, err := cli.OpenBackends(opts, cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer backends.Close()
			s, err := backends.Store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			overlay = graph.OverlayFor(s)
		}

		fmt.Print(graph.GenerateMermaid(graph.Transitions(cfg), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addBackendFlags(graphCmd)
}
