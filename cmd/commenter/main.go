package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "commenter",
		Short: "Worker-side task lifecycle agent for the micro-task marketplace",
		Long: `commenter runs the worker side of the micro-task marketplace: it keeps
the claimable task pool in view, grabs tasks under the claim cooldown,
tracks claims through review, and uploads evidence submissions. The UI
shell talks to it over a local HTTP API and websocket event stream.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
