package cli

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	installCmd = &cobra.Command{
		Use:   "install [server-binary]",
		Short: "Install the transflow server as a background service",
		Args:  cobra.MaximumNArgs(1),
		Run:   runInstall,
	}

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the transflow service",
		Run:   runStart,
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the transflow service",
		Run:   runStop,
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the transflow service",
		Run:   runUninstall,
	}

	logsCmd = &cobra.Command{
		Use:   "logs",
		Short: "Tail the service logs",
		Run:   runLogs,
	}
)

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(logsCmd)
}

// program wraps the transflow server binary as an OS service: the service
// manager owns start/stop, transflowctl just tells it which executable to
// supervise.
type program struct {
	binary string
	cmd    *exec.Cmd
}

func (p *program) Start(s service.Service) error {
	go p.run()
	return nil
}

func (p *program) run() {
	if err := setupServiceLogging(); err != nil {
		log.Printf("Failed to setup file logging: %v", err)
	}

	log.Println("Service starting...")

	binary := p.binary
	if binary == "" {
		binary = viper.GetString("server_bin")
	}
	if binary == "" {
		log.Println("No server binary configured. Please run 'transflowctl install [server-binary]' first.")
		return
	}

	p.cmd = exec.Command(binary)
	p.cmd.Stdout = os.Stdout
	p.cmd.Stderr = os.Stderr
	if err := p.cmd.Run(); err != nil {
		log.Printf("transflow server exited: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	log.Println("Service stopping...")
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return nil
}

func getServiceConfig(serverBin string) *service.Config {
	ex, err := os.Executable()
	if err != nil {
		log.Fatal(err)
	}

	args := []string{"service-run"}
	if serverBin != "" {
		args = append(args, "--config", serverBin)
	}

	return &service.Config{
		Name:        "transflow",
		DisplayName: "transflow transcription service",
		Description: "Runs the transflow durable job-pipeline server.",
		Executable:  ex,
		Arguments:   args,
	}
}

var serviceRunCmd = &cobra.Command{
	Use:    "service-run",
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := setupServiceLogging(); err != nil {
			log.Printf("Failed to setup file logging: %v", err)
		}
		log.Println("Starting service-run command...")

		prg := &program{binary: viper.GetString("server_bin")}
		s, err := service.New(prg, getServiceConfig(""))
		if err != nil {
			log.Fatalf("Failed to create service: %v", err)
		}

		svcLogger, err := s.Logger(nil)
		if err != nil {
			log.Printf("Failed to get system logger: %v", err)
		} else {
			_ = svcLogger.Info("transflow service starting...")
		}

		if err = s.Run(); err != nil {
			if svcLogger != nil {
				_ = svcLogger.Error(err)
			}
			log.Fatalf("Service failed to run: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serviceRunCmd)
}

func runInstall(cmd *cobra.Command, args []string) {
	var serverBin string
	if len(args) > 0 {
		absPath, err := filepath.Abs(args[0])
		if err != nil {
			log.Fatalf("Failed to get absolute path: %v", err)
		}
		viper.Set("server_bin", absPath)
		home, err := os.UserHomeDir()
		if err == nil {
			_ = viper.WriteConfigAs(filepath.Join(home, ".transflowctl.yaml"))
		}
		serverBin = absPath
		fmt.Printf("Configured service to run: %s\n", absPath)
	} else {
		serverBin = viper.GetString("server_bin")
		if serverBin == "" {
			log.Fatalf("No server binary specified. Usage: transflowctl install [server-binary]")
		}
	}

	s, err := service.New(&program{binary: serverBin}, getServiceConfig(serverBin))
	if err != nil {
		log.Fatal(err)
	}
	if err = s.Install(); err != nil {
		log.Fatalf("Failed to install service: %v", err)
	}
	fmt.Println("Service installed successfully.")
}

func runStart(cmd *cobra.Command, args []string) {
	s, err := service.New(&program{}, getServiceConfig(""))
	if err != nil {
		log.Fatal(err)
	}
	if err = s.Start(); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}
	fmt.Println("Service started.")
}

func runStop(cmd *cobra.Command, args []string) {
	s, err := service.New(&program{}, getServiceConfig(""))
	if err != nil {
		log.Fatal(err)
	}
	if err = s.Stop(); err != nil {
		log.Fatalf("Failed to stop service: %v", err)
	}
	fmt.Println("Service stopped.")
}

func runUninstall(cmd *cobra.Command, args []string) {
	s, err := service.New(&program{}, getServiceConfig(""))
	if err != nil {
		log.Fatal(err)
	}
	if err = s.Uninstall(); err != nil {
		log.Fatalf("Failed to uninstall service: %v", err)
	}
	fmt.Println("Service uninstalled.")
}

func getLogFilePath() string {
	return "/tmp/transflow-service.log"
}

func setupServiceLogging() error {
	logFile := getLogFilePath()
	f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening file: %v", err)
	}
	log.SetOutput(f)
	return nil
}

func runLogs(cmd *cobra.Command, args []string) {
	logFile := getLogFilePath()
	fmt.Printf("Tailing logs from %s...\n", logFile)

	c := exec.Command("tail", "-f", logFile)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		fmt.Printf("Error tailing logs: %v\n", err)
	}
}
