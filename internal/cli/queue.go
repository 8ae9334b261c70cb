package cli

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect or cancel jobs on a transflow server",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every active job",
	Run:   runQueueList,
}

var queueGetCmd = &cobra.Command{
	Use:   "get [job-id]",
	Short: "Show a single job",
	Args:  cobra.ExactArgs(1),
	Run:   runQueueGet,
}

var queueCancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a queued or running job",
	Args:  cobra.ExactArgs(1),
	Run:   runQueueCancel,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd, queueGetCmd, queueCancelCmd)
}

func runQueueList(cmd *cobra.Command, args []string) {
	client, err := newControlClient()
	if err != nil {
		log.Fatal(err)
	}
	body, err := client.ListQueue()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(body))
}

func runQueueGet(cmd *cobra.Command, args []string) {
	id, err := parseJobIDArg(args[0])
	if err != nil {
		log.Fatal(err)
	}
	client, err := newControlClient()
	if err != nil {
		log.Fatal(err)
	}
	body, err := client.GetJob(id)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(body))
}

func runQueueCancel(cmd *cobra.Command, args []string) {
	id, err := parseJobIDArg(args[0])
	if err != nil {
		log.Fatal(err)
	}
	client, err := newControlClient()
	if err != nil {
		log.Fatal(err)
	}
	body, err := client.CancelJob(id)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(body))
}

func parseJobIDArg(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q: %w", raw, err)
	}
	return uint(id), nil
}
