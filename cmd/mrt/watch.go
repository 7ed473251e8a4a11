package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/mrt/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow sessions hosted by mrt serve",
	Long:  `Prints phase changes and trial records of hosted sessions as they happen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Watch(ctx, http.DefaultClient, settings.GetString("server"), settings.GetString("session"), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("server", "http://localhost:8080", "Base URL of the server")
	watchCmd.Flags().String("session", "", "Only follow this session")
}
