package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"canvasgrab/pkg/config"
	"canvasgrab/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage canvasgrab configuration files.

Configuration is loaded from:
  - Command line flags (highest priority)
  - Environment variables (CANVASGRAB_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.canvasgrab.yaml' in the current directory unless
a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.

The password is masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# canvasgrab configuration file
#
# All options can also be set via environment variables prefixed with
# CANVASGRAB_, for example CANVASGRAB_URL and CANVASGRAB_USERNAME.

# Canvas instance and credentials
canvas:
  # Canvas instance URL (required)
  base_url: "https://canvas.example.edu"

  # Credentials. Prefer 'canvasgrab auth login' over storing these in
  # plain text here.
  username: ""
  password: ""

  # Browser user agent string sent with every request
  user_agent: ""

# Download configuration
download:
  # Directory the course files are mirrored into
  dir: "./canvas_files"

  # Skip files that already exist locally with content
  skip_existing: true

  # Minimum wait between any two requests
  delay: 2s

  # Timeout for loading one page
  page_timeout: 20s

  # Timeout for one download attempt
  download_timeout: 60s

# Retry policy for failed downloads
retry:
  max_attempts: 3
  initial_delay: 2s
  backoff_multiplier: 2.0

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional; stdout only when empty)
  file: ""

  # Debug mode also writes an HTML snapshot of every page visited
  debug: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".canvasgrab.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file and set your Canvas URL")
	fmt.Println("2. Store credentials with 'canvasgrab auth login'")
	fmt.Println("3. Start downloading with 'canvasgrab scrape'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Canvas.Password != "" {
		displayCfg.Canvas.Password = "***"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (CANVASGRAB_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-detected)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		ui.PrintError("No configuration file specified", "Use the --config flag")
		os.Exit(1)
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if cfg.Canvas.Username == "" || cfg.Canvas.Password == "" {
		warnings = append(warnings, "no credentials configured; 'canvasgrab auth login' or environment variables will be needed")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Canvas instance: %s\n", cfg.Canvas.BaseURL)
	fmt.Printf("  Download directory: %s\n", cfg.Download.Dir)
	fmt.Printf("  Skip existing: %t\n", cfg.Download.SkipExisting)
	fmt.Printf("  Request delay: %s\n", cfg.Download.Delay)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
