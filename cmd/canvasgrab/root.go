package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"canvasgrab/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	debugMode  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canvasgrab",
	Short: "Mirror your Canvas course files to local disk",
	Long: `canvasgrab logs into a Canvas LMS instance with your own credentials,
walks every enrolled course, and downloads the files it links to.

For each course three surfaces are scanned: the course homepage, the
modules listing, and the files section (including nested folders). Files
already present on disk are skipped, so reruns only fetch what changed.

Credentials can be stored securely with 'canvasgrab auth login' or passed
via environment variables (CANVASGRAB_URL, CANVASGRAB_USERNAME,
CANVASGRAB_PASSWORD).`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .canvasgrab.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug logging plus an HTML snapshot of every page visited")

	rootCmd.SetVersionTemplate(`canvasgrab {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
