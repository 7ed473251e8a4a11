package main

import (
	"context"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session in the terminal",
	Long: `Runs practice and main blocks for one participant in the terminal.

The trial order is derived from the session code, or the participant ID when
no code is given, so the same identity always sees the same sequence.

Modes:
- tui (default): single key presses, timed from the moment they are read.
- text: one command per line (begin, f, j, quit).
- json: NDJSON frames on stdout, NDJSON or bare inputs on stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{
			Config:        cfg,
			ParticipantID: settings.GetString("pid"),
			SessionCode:   settings.GetString("code"),
			Mode:          settings.GetString("mode"),
			SessionID:     settings.GetString("session"),
			Fresh:         settings.GetBool("fresh"),
			Backends:      backendOptions(),
			Output:        settings.GetString("output"),
			Debug:         settings.GetBool("debug"),
			LogLevel:      settings.GetString("log-level"),
		}
		return cli.RunSession(context.Background(), opts, cli.StdStreams())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("pid", "", "Participant ID")
	runCmd.Flags().String("code", "", "Session code (wins over the participant ID for seeding)")
	runCmd.Flags().String("mode", cli.ModeTUI, "Presentation mode: tui, text or json")
	runCmd.Flags().String("session", "", "Session ID to persist or resume (requires --store)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().StringP("output", "o", "", `Results export path (.csv or .jsonl, "-" to skip)`)
	addBackendFlags(runCmd)
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Session store: file, sqlite or redis (default none)")
	cmd.Flags().String("store-dir", "", "Directory of the file store (default .mrt/sessions)")
	cmd.Flags().String("sqlite", "", "SQLite database path (default .mrt/mrt.db)")
	cmd.Flags().String("redis-url", "", "Redis URL, e.g. redis://localhost:6379/0")
	cmd.Flags().String("store-key", "", "Encrypt stored sessions with this 32-byte key (hex or base64)")
	cmd.Flags().String("results-log", "", "Append every result submission to this JSONL file")
}

func backendOptions() cli.BackendOptions {
	return cli.BackendOptions{
		Store:      settings.GetString("store"),
		StoreDir:   settings.GetString("store-dir"),
		SQLiteDSN:  settings.GetString("sqlite"),
		RedisURL:   settings.GetString("redis-url"),
		StoreKey:   settings.GetString("store-key"),
		ResultsLog: settings.GetString("results-log"),
	}
}
