package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"canvasgrab/internal/downloader"
	"canvasgrab/pkg/auth"
	"canvasgrab/pkg/canvas"
	"canvasgrab/pkg/config"
	"canvasgrab/pkg/logger"
	"canvasgrab/pkg/report"
	"canvasgrab/pkg/scraper"
	"canvasgrab/pkg/storage"
	"canvasgrab/pkg/ui"
)

var (
	// Scrape command flags
	canvasURL   string
	username    string
	password    string
	outputDir   string
	headless    bool
	noSkip      bool
	delay       float64
	maxRetries  int
	accountName string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Download the files of every enrolled course",
	Long: `Log into Canvas, enumerate your courses, and download every file they
link to from the homepage, the modules listing, and the files section.

Credentials are resolved in order from:
  - the --account flag (stored with 'canvasgrab auth login')
  - command-line flags and environment variables
  - the default stored account

Files that already exist locally with content are skipped, so an
interrupted run can simply be started again.`,
	Example: `  # Mirror all courses using the default stored account
  canvasgrab scrape

  # Pass the instance and credentials explicitly
  canvasgrab scrape --url https://canvas.example.edu --username me@example.edu

  # Use a specific stored account and output directory
  canvasgrab scrape --account school --output ~/canvas

  # Re-download everything, ignoring files already on disk
  canvasgrab scrape --no-skip`,
	Args: cobra.NoArgs,
	Run:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&canvasURL, "url", "", "Canvas instance URL (e.g. https://canvas.example.edu)")
	scrapeCmd.Flags().StringVarP(&username, "username", "u", "", "Canvas username")
	scrapeCmd.Flags().StringVar(&password, "password", "", "Canvas password (prefer stored accounts or the prompt)")
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "download directory (default ./canvas_files)")
	scrapeCmd.Flags().BoolVar(&noSkip, "no-skip", false, "download files even when they already exist locally")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "accepted for compatibility; the HTTP client needs no display")
	scrapeCmd.Flags().Float64Var(&delay, "delay", -1, "seconds to wait between requests")
	scrapeCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum download attempts per file")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
}

func runScrape(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if canvasURL != "" {
		flags["url"] = canvasURL
	}
	if username != "" {
		flags["username"] = username
	}
	if password != "" {
		flags["password"] = password
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if noSkip {
		flags["no-skip"] = true
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if delay >= 0 {
		flags["delay"] = delay
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if debugMode {
		flags["debug"] = true
	}

	// Resolve stored credentials before validating the config, since the
	// account carries the instance URL too
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = credManager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'canvasgrab auth list' to see stored accounts")
			os.Exit(1)
		}
	} else if canvasURL == "" || username == "" || password == "" {
		// Fall back to the default stored account when flags leave gaps
		account, _ = credManager.RetrieveDefault()
	}
	if account != nil {
		if _, set := flags["url"]; !set {
			flags["url"] = account.BaseURL
		}
		if _, set := flags["username"]; !set {
			flags["username"] = account.Username
		}
		if _, set := flags["password"]; !set {
			flags["password"] = account.Password
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("canvasgrab starting")

	if account != nil {
		log.WithField("account", account.Name).Info("using stored credentials")
		ui.PrintInfo("Using account", account.Name)
	}

	if cfg.Canvas.Username == "" || cfg.Canvas.Password == "" {
		ui.PrintError("No Canvas credentials found", "")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  canvasgrab auth login")
		fmt.Println("\nOr set environment variables:")
		fmt.Println("  export CANVASGRAB_URL=https://canvas.example.edu")
		fmt.Println("  export CANVASGRAB_USERNAME=your_username")
		fmt.Println("  export CANVASGRAB_PASSWORD=your_password")
		os.Exit(1)
	}

	ui.PrintInfo("Canvas instance", cfg.Canvas.BaseURL)
	ui.PrintInfo("Download directory", cfg.Download.Dir)

	// Cancellation takes effect between courses; the course in flight
	// finishes first
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snaps canvas.Snapshotter
	if cfg.Logging.Debug {
		fileSnaps, err := canvas.NewFileSnapshotter(filepath.Join(cfg.Download.Dir, ".snapshots"))
		if err != nil {
			ui.PrintError("Failed to create snapshot directory", err.Error())
			os.Exit(1)
		}
		snaps = fileSnaps
	}

	client, err := canvas.NewClient(canvas.Options{
		BaseURL:     cfg.Canvas.BaseURL,
		UserAgent:   cfg.Canvas.UserAgent,
		PageTimeout: cfg.Download.PageTimeout,
		Delay:       cfg.Download.Delay,
		Logger:      log,
		Snapshotter: snaps,
	})
	if err != nil {
		ui.PrintError("Failed to create Canvas client", err.Error())
		os.Exit(1)
	}

	if err := client.Login(ctx, cfg.Canvas.Username, cfg.Canvas.Password); err != nil {
		log.WithError(err).Error("login failed")
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Logged in")

	courses, err := client.Courses(ctx)
	if err != nil {
		log.WithError(err).Error("course enumeration failed")
		ui.PrintError("Could not list courses", err.Error())
		os.Exit(1)
	}
	if len(courses) == 0 {
		ui.PrintWarning("No courses found for this account")
		return
	}
	ui.PrintInfo("Courses", fmt.Sprintf("%d", len(courses)))

	store, err := storage.NewManager(cfg.Download.Dir)
	if err != nil {
		ui.PrintError("Failed to create download directory", err.Error())
		os.Exit(1)
	}

	sink := downloader.New(client, store, downloader.Options{
		SkipExisting:      cfg.Download.SkipExisting,
		Timeout:           cfg.Download.DownloadTimeout,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialDelay:      cfg.Retry.InitialDelay,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		Logger:            log,
	})

	started := time.Now().UTC()
	manifest, runErr := scraper.New(client, sink, client.BaseURL(), log).Run(ctx, courses)
	finished := time.Now().UTC()

	summary := report.Build(manifest, started, finished, sink.BytesWritten())
	reportPath := filepath.Join(cfg.Download.Dir, "report.json")
	if err := summary.Save(reportPath); err != nil {
		log.WithError(err).Warn("failed to save run report")
	} else {
		log.WithField("path", reportPath).Info("run report saved")
	}

	ui.PrintSummary(summary)

	if runErr != nil {
		log.WithError(runErr).Error("run aborted")
		ui.PrintError("Run aborted", runErr.Error())
		os.Exit(1)
	}

	log.InfoWithFields("run complete", map[string]interface{}{
		"written": summary.TotalWritten,
		"skipped": summary.TotalSkipped,
		"failed":  summary.TotalFailed,
	})
	ui.PrintSuccess("Done")
}
