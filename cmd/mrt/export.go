package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/aretw0/mrt/internal/logging"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export the results of a stored session",
	Long:  `Writes the trial records of a stored session as CSV or JSONL. Without a session ID, lists the stored sessions.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}
		opts := backendOptions()
		if opts.Store == "" {
			return errors.New("export requires --store")
		}
		// Results are read back, never submitted again.
		cfg.SheetsURL = ""
		opts.ResultsLog = ""

		backends, err := cli.OpenBackends(opts, cfg, logging.NewNop())
		if err != nil {
			return err
		}
		defer backends.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			return cli.ListSessions(ctx, backends.Store, os.Stdout)
		}
		path, err := cli.ExportSession(ctx, backends.Store, args[0], settings.GetString("output"), settings.GetString("format"))
		if err != nil {
			return err
		}
		fmt.Printf(">>> Results written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Export path (.csv or .jsonl)")
	exportCmd.Flags().StringP("format", "f", "csv", "Format of the default export name: csv or jsonl")
	addBackendFlags(exportCmd)
}
