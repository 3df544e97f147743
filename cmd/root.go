package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "locallink",
	Short: "LocalLink civic issue reporting backend",
	Long: `LocalLink lets residents report neighbourhood issues, discuss and
upvote them, and lets administrators triage them. Usage:

	locallink serve
	locallink indexes
	locallink token --uid alice --role admin
`,
	SilenceUsage: true,
	RunE:         serveCmd.RunE,
}

// Execute adds all child commands to the root command. It is called once by
// main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
