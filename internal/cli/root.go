package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interviewd",
	Short: "Timed, sectioned interview sessions",
	Long: `interviewd runs the interview session service and its admin commands.

Sessions are generated from a template or a remote generator, walked one
question at a time with per-section timers, persisted after every step and
submitted once to a scoring service.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
