package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transflowctl",
	Short: "transflowctl — control surface client for a transflow server",
	Long:  `A CLI to install/run the transflow server as a background service and to inspect or cancel queued transcription jobs through its control HTTP surface.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)
}
