package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transflow/internal/artifact"
	"transflow/internal/cleaner"
	"transflow/internal/childproc"
	"transflow/internal/config"
	"transflow/internal/control"
	"transflow/internal/database"
	"transflow/internal/dispatcher"
	"transflow/internal/notify"
	"transflow/internal/queue"
	"transflow/internal/supervisor"
	"transflow/internal/watcher"
	"transflow/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Version information (set by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A worker-mode invocation never reaches the rest of main: it is this
	// same binary, re-exec'd by internal/childproc.Start with its job
	// arguments riding in the environment instead of argv.
	if raw := os.Getenv(childproc.WorkerEnvVar); raw != "" {
		runWorker(raw)
		return
	}

	var showVersion = flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("transflow %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	log.Println("🚀 transflow starting up...")

	log.Println("📋 Loading configuration...")
	cfg := config.Load()

	log.Println("📝 Initializing logging system...")
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting transflow", "version", version, "commit", commit)

	log.Println("🗄️  Initializing database connection...")
	if err := database.Initialize(cfg.DatabasePath); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	log.Println("✅ Database connection established")

	store := queue.New(database.DB)

	log.Println("📣 Setting up notification port...")
	dashboard := notify.NewBroadcaster()
	defer dashboard.Shutdown()
	gateway := notify.NewGatewayClient(os.Getenv("NOTIFY_GATEWAY_URL"), cfg.AdminIDs)
	notifier := notify.NewTee(gateway, dashboard)
	log.Println("✅ Notification port ready")

	executable, err := os.Executable()
	if err != nil {
		log.Fatal("Failed to resolve own executable path:", err)
	}

	artifactWriter := artifact.New(cfg.TranscriptionsDir)
	fileCleaner := cleaner.New([]string{cfg.TempAudioDir, cfg.DownloadsDir}, store.FileInQueue)

	newDispatcher := func() supervisor.Dispatcher {
		return dispatcher.New(store, notifier, fileCleaner, artifactWriter, dispatcher.Config{
			DefaultModel:          cfg.DefaultModel,
			SmallModelThresholdMB: cfg.SmallModelThresholdMB,
			ChildExecutable:       executable,
		})
	}
	dispatcherSupervisor := supervisor.New(store, newDispatcher, time.Duration(cfg.DispatcherHealthInterval)*time.Second)

	downloadsWatcher, err := watcher.New(watcher.Config{
		Dir:            cfg.DownloadsDir,
		PollInterval:   time.Duration(cfg.DownloadsPollInterval) * time.Second,
		SentinelUserID: cfg.DownloadsUserID,
		MaxFileSizeMB:  cfg.MaxFileSizeMB,
	}, store)
	if err != nil {
		log.Fatal("Failed to start downloads watcher:", err)
	}
	defer downloadsWatcher.Close()

	controlServer := control.New(store, cfg.ControlSecret)
	httpServer := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: controlServer.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		dispatcherSupervisor.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		downloadsWatcher.Run(groupCtx)
		return nil
	})

	go func() {
		log.Printf("🌐 Starting control HTTP server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start control server:", err)
		}
	}()

	log.Println("🎉 transflow is now running!")
	log.Println("🛑 Press Ctrl+C to stop the server")

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Println("Control server forced to shutdown:", err)
	}

	_ = group.Wait()
	log.Println("transflow exited")
}
