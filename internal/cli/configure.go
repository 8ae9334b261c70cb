package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	configureServerURL string
	configureToken     string
)

// configureCmd replaces the teacher's browser-based login flow: the control
// surface authenticates with a single static bearer secret (persisted to
// data/control_secret on the server, whose startup log names that file when
// it first generates the secret), not a
// per-user OAuth handshake, so there's nothing to redirect a browser to.
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Save the server URL and control token used by every other command",
	Run:   runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringVarP(&configureServerURL, "server", "s", "http://localhost:8080", "transflow server URL")
	configureCmd.Flags().StringVarP(&configureToken, "token", "t", "", "control surface bearer token")
}

func runConfigure(cmd *cobra.Command, args []string) {
	if configureToken == "" {
		log.Fatal("--token is required (see the server's data/control_secret file or CONTROL_SECRET env var)")
	}
	if err := SaveConfig(configureServerURL, configureToken); err != nil {
		log.Fatalf("Failed to save config: %v", err)
	}
	fmt.Printf("Configured to talk to %s\n", configureServerURL)
}
