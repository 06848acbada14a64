// Package main implements the filter panel entry point. This file handles
// command-line argument parsing, dependency injection, and wiring the
// session manager to the terminal interface.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/filter-panel/panel/internal/config"
	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/logging"
	"github.com/filter-panel/panel/internal/rules"
	"github.com/filter-panel/panel/internal/session"
	"github.com/filter-panel/panel/internal/transport"
	"github.com/filter-panel/panel/internal/ui/panel"
)

// Application metadata
const (
	Version     = "1.0.0"
	ProgramName = "Filter Panel"
)

// CommandLineArgs represents parsed command-line arguments
type CommandLineArgs struct {
	Host        string
	Profile     string
	Theme       string
	ShowHelp    bool
	ShowVersion bool
}

func main() {
	args := parseCommandLineArgs()

	if handleEarlyExitConditions(args) {
		return
	}

	logger := initializeLogging(args)

	if err := validateArguments(args); err != nil {
		logger.Error("Invalid arguments", "error", err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := run(args, logger); err != nil {
		logger.Error("Application terminated with error", "error", err.Error())
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Application shutdown completed")
}

// parseCommandLineArgs processes command-line arguments
func parseCommandLineArgs() CommandLineArgs {
	var args CommandLineArgs

	flag.StringVar(&args.Host, "host", "", "Host and port of the proxy to connect to (e.g., localhost:8888)")
	flag.StringVar(&args.Profile, "profile", "", "Profile name from configuration file to use for connection")
	flag.StringVar(&args.Theme, "theme", "", "Visual theme name for syntax highlighting and UI elements")
	flag.BoolVar(&args.ShowHelp, "help", false, "Display usage information and exit")
	flag.BoolVar(&args.ShowVersion, "version", false, "Display version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", ProgramName, Version)
		fmt.Fprintf(os.Stderr, "A terminal control panel for a content-filtering proxy: live block\n")
		fmt.Fprintf(os.Stderr, "rules, on-demand URL testing, and a realtime access log.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                           # Connect using the default profile\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host localhost:8888     # Connect directly to specified proxy\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --profile staging         # Connect using the 'staging' profile\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConfiguration file location: ~/.config/filter-panel/profiles.yaml\n")
	}

	flag.Parse()
	return args
}

// handleEarlyExitConditions processes help and version flags that cause immediate exit
func handleEarlyExitConditions(args CommandLineArgs) bool {
	if args.ShowHelp {
		flag.Usage()
		return true
	}

	if args.ShowVersion {
		fmt.Printf("%s v%s\n", ProgramName, Version)
		return true
	}

	return false
}

// initializeLogging sets up the logging system based on environment and arguments
func initializeLogging(args CommandLineArgs) *logging.Logger {
	logConfig := logging.DefaultConfig()

	if os.Getenv("FILTER_PANEL_DEBUG") == "true" {
		logConfig.Level = logging.DebugLevel
		logConfig.Format = "json"
	}
	if logFile := os.Getenv("FILTER_PANEL_LOG_FILE"); logFile != "" {
		logConfig.Output = logFile
	}

	if err := logging.InitGlobalLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger := logging.GetGlobalLogger()
	logger.Info("Filter panel starting", "version", Version)

	return logger
}

// validateArguments ensures command-line arguments are valid and compatible
func validateArguments(args CommandLineArgs) error {
	if args.Host != "" && args.Profile != "" {
		return fmt.Errorf("cannot specify both --host and --profile options simultaneously")
	}

	if args.Host != "" && !strings.Contains(args.Host, ":") {
		return fmt.Errorf("host must include port (e.g., localhost:8888)")
	}

	return nil
}

// run wires the dependencies and drives the TUI to completion
func run(args CommandLineArgs, logger *logging.Logger) error {
	configManager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	profile, err := determineProfile(args, configManager)
	if err != nil {
		return err
	}
	logger.LogConfigLoad(configManager.GetConfigPath(), profile.Name)

	// Profile-level logging settings override the defaults
	if profile.Logging != (interfaces.LoggingConfig{}) {
		logConfig := logging.DefaultConfig()
		logConfig.Level = logging.ParseLevel(profile.Logging.Level)
		if profile.Logging.Format != "" {
			logConfig.Format = profile.Logging.Format
		}
		if profile.Logging.File != "" {
			logConfig.Output = profile.Logging.File
		}
		if err := logging.InitGlobalLogger(logConfig); err != nil {
			return fmt.Errorf("failed to apply profile logging settings: %w", err)
		}
		logger = logging.GetGlobalLogger()
	}

	theme, err := configManager.LoadTheme(profile.Theme)
	if err != nil {
		logger.Warn("Theme not found, using defaults", "theme", profile.Theme)
		theme = &interfaces.Theme{Name: profile.Theme}
	}

	channelURL := profile.ChannelURL
	sessionManager := session.NewManager(session.Config{
		Factory:      func() interfaces.Transport { return transport.New(channelURL) },
		Retry:        profile.Retry,
		LogRetention: profile.LogRetention,
	})
	sessionManager.Start()
	defer sessionManager.Close()

	rulesClient := rules.NewClient(profile.RulesURL)

	model := panel.NewPanelModel(profile, sessionManager, rulesClient, theme)
	program := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("Starting TUI application")
	_, err = program.Run()
	return err
}

// determineProfile resolves which profile to use based on command-line arguments
func determineProfile(args CommandLineArgs, configManager *config.Manager) (*interfaces.Profile, error) {
	// An explicit host gets a temporary profile with stock settings
	if args.Host != "" {
		profile := &interfaces.Profile{
			Name:         "temporary",
			ChannelURL:   fmt.Sprintf("ws://%s/ws", args.Host),
			RulesURL:     fmt.Sprintf("http://%s", args.Host),
			Theme:        "github",
			Retry:        config.DefaultRetryConfig(),
			LogRetention: config.DefaultLogRetention,
		}
		if args.Theme != "" {
			profile.Theme = args.Theme
		}
		return profile, nil
	}

	profileName := args.Profile
	if profileName == "" {
		profileName = "default"
	}

	profile, err := configManager.LoadProfile(profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile '%s': %w", profileName, err)
	}

	if args.Theme != "" {
		profile.Theme = args.Theme
	}

	return profile, nil
}
