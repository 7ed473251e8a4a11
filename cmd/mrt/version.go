package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/mrt"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mrt",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mrt version %s\n", strings.TrimSpace(mrt.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
