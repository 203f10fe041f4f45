package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/report"
	"github.com/PentesterFlow/webete/internal/shutdown"
	"github.com/PentesterFlow/webete/internal/store"
	"github.com/PentesterFlow/webete/pkg/recon"
)

var version = "1.0.0"

// flags holds everything parsed from the command line.
type flags struct {
	// Global flags
	configFile string
	verbose    bool
	logLevel   string

	// Actions
	auto   bool
	python string

	// Auth flags
	username string
	password string

	// Output flags
	outputDir string
	format    string
	noColor   bool
	dbFile    string

	// Request flags
	decompiler string
	rate       float64
	timeout    time.Duration
}

func main() {
	if err := newRootCmd(&flags{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webete [flags] target",
		Short: "webete - opportunistic web reconnaissance",
		Long: `webete - opportunistic web reconnaissance.

Fetches robots.txt (-a), or guesses the compiled bytecode of a Python source
file below the target (-p), downloads the first match and decompiles it.
The target is a base URL and should end with '/'.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecon(cmd, f, args[0])
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Action flags
	rootCmd.Flags().BoolVarP(&f.auto, "auto", "a", false, "Fetch robots.txt")
	rootCmd.Flags().StringVarP(&f.python, "python", "p", "", "Python source `FILE` to recover, e.g. app.py or pkg/views")
	rootCmd.MarkFlagsMutuallyExclusive("auto", "python")
	rootCmd.MarkFlagsOneRequired("auto", "python")

	// Auth flags
	rootCmd.Flags().StringVarP(&f.username, "bauth-user", "U", "", "Basic auth username")
	rootCmd.Flags().StringVarP(&f.password, "bauth-pass", "P", "", "Basic auth password")

	// Output flags
	rootCmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", ".", "Directory decompiled sources are written under")
	rootCmd.Flags().StringVar(&f.format, "format", string(report.FormatText), "Report format (text, json)")
	rootCmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().StringVar(&f.dbFile, "db", "", "Findings journal `FILE`")

	// Request flags
	rootCmd.Flags().StringVar(&f.decompiler, "decompiler", "", "Decompiler command (default uncompyle6)")
	rootCmd.Flags().Float64Var(&f.rate, "rate", 0, "Requests per second (0 = unlimited)")
	rootCmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Request timeout (0 = none)")

	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runRecon(cmd *cobra.Command, f *flags, target string) error {
	config, err := buildConfig(cmd, f, target)
	if err != nil {
		return err
	}

	if config.Report.NoColor {
		color.NoColor = true
	}

	log := logger.New(config.LoggerConfig())

	// Setup signal handling
	h := shutdown.New(cmd.Context(), shutdown.Config{
		OnSignal: func(os.Signal) {
			fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
		},
	})
	defer func() {
		if err := h.Close(); err != nil {
			log.WithError(err).Warn("cleanup failed")
		}
	}()

	r, err := recon.New(
		recon.WithConfig(config),
		recon.WithLogger(log),
		recon.WithReportOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	h.RegisterCloser("runner", r.Close)

	// -p "" is a request for the python action with an empty base name.
	action, file := recon.ActionAuto, ""
	if cmd.Flags().Changed("python") {
		action, file = recon.ActionPython, f.python
	}

	if err := r.Run(h.Context(), action, file); err != nil {
		return err
	}
	if h.Interrupted() {
		return fmt.Errorf("interrupted")
	}
	return nil
}

// buildConfig layers the config file, the positional target and every flag
// set on the command line, in that order.
func buildConfig(cmd *cobra.Command, f *flags, target string) (*recon.Config, error) {
	config := recon.DefaultConfig()
	if f.configFile != "" {
		fileConfig, err := recon.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	config.Target = target

	// Override with command-line flags if provided
	changed := cmd.Flags().Changed
	if changed("verbose") {
		config.Verbose = f.verbose
	}
	if changed("log-level") {
		config.LogLevel = f.logLevel
	}
	if changed("bauth-user") {
		config.Auth.Username = f.username
	}
	if changed("bauth-pass") {
		config.Auth.Password = f.password
	}
	if changed("output-dir") {
		config.OutputDir = f.outputDir
	}
	if changed("format") {
		config.Report.Format = report.Format(f.format)
	}
	if changed("no-color") {
		config.Report.NoColor = f.noColor
	}
	if changed("db") {
		config.StorePath = f.dbFile
	}
	if changed("decompiler") {
		fields := strings.Fields(f.decompiler)
		if len(fields) == 0 {
			return nil, fmt.Errorf("--decompiler must not be empty")
		}
		config.Decompiler.Command = fields[0]
		config.Decompiler.Args = fields[1:]
	}
	if changed("rate") {
		config.HTTP.RequestsPerSecond = f.rate
	}
	if changed("timeout") {
		config.HTTP.Timeout = f.timeout
	}

	return config, nil
}

func newHistoryCmd() *cobra.Command {
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history DB",
		Short: "List findings recorded in a journal",
		Long:  "List the findings a previous run recorded with --db, oldest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per finding")

	return historyCmd
}

func runHistory(w io.Writer, path string, asJSON bool) error {
	// bolt.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	findings, err := s.List()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		for _, f := range findings {
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
		return nil
	}

	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings recorded.")
		return nil
	}
	for _, f := range findings {
		printFinding(w, f)
	}
	return nil
}

func printFinding(w io.Writer, f *store.Finding) {
	status := color.New(color.FgRed).Sprint("not found")
	if f.Found {
		status = color.New(color.FgGreen).Sprint("found")
	}

	fmt.Fprintf(w, "#%d %s %-6s %s %s", f.ID, f.Timestamp.Format(time.RFC3339), f.Action, f.Target, status)
	if f.URL != "" {
		fmt.Fprintf(w, " %s", f.URL)
	}
	if f.StatusCode != 0 {
		fmt.Fprintf(w, " [%d]", f.StatusCode)
	}
	if f.Version != "" {
		fmt.Fprintf(w, " python %s", f.Version)
	}
	if f.OutputPath != "" {
		fmt.Fprintf(w, " -> %s", f.OutputPath)
	}
	fmt.Fprintf(w, " (%d requests)\n", f.Requests)
}
