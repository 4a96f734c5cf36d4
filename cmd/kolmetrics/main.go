// cmd/kolmetrics/main.go - command line entry point for the metrics pipeline
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valpere/KOLMetrics/internal/browser"
	"github.com/valpere/KOLMetrics/internal/config"
	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/internal/fetch"
	"github.com/valpere/KOLMetrics/internal/ingest"
	"github.com/valpere/KOLMetrics/internal/monitoring"
	"github.com/valpere/KOLMetrics/internal/output"
	"github.com/valpere/KOLMetrics/internal/runner"
	"github.com/valpere/KOLMetrics/internal/store"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// main handles CLI arguments and routes to the appropriate command.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: kolmetrics run <config.yaml>\n")
			os.Exit(1)
		}
		runPipeline(os.Args[2])

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: kolmetrics validate <config.yaml>\n")
			os.Exit(1)
		}
		validateConfig(os.Args[2])

	case "template":
		if err := generateTemplate(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "export":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: kolmetrics export <config.yaml> [--format <fmt>] [--out <file>]\n")
			os.Exit(1)
		}
		exportResults(os.Args[2], os.Args[3:])

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runPipeline executes a full batch run from a configuration file.
func runPipeline(configFile string) {
	verbose := hasFlag("--verbose")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := executeRun(ctx, configFile, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// executeRun wires the pipeline and processes the configured input file.
func executeRun(ctx context.Context, configFile string, verbose bool) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}

	if cfg.Input.File == "" {
		return kolerrors.NewConfiguration("input.file is required for run", nil)
	}

	rows, err := ingest.ReadFile(cfg.Input.File, ingest.Options{Charset: cfg.Input.Charset})
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Loaded %d rows from %s\n", len(rows), cfg.Input.File)
	}

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := buildRunner(cfg, st, verbose)
	if err != nil {
		return err
	}

	report, runErr := r.Run(ctx, rows)
	printReport(report, verbose)
	if runErr != nil {
		return runErr
	}

	if cfg.Output.File != "" {
		if err := exportStored(ctx, cfg, st, cfg.Output.Format, cfg.Output.File); err != nil {
			return err
		}
		fmt.Printf("Results exported to %s\n", cfg.Output.File)
	}
	return nil
}

// buildRunner assembles the fetch stack and runner from configuration.
func buildRunner(cfg *config.Config, st store.Store, verbose bool) (*runner.Runner, error) {
	httpClient := fetch.NewClient(fetch.ClientConfig{
		Timeout:    cfg.Fetch.Timeout.Std(),
		MaxRetries: cfg.Fetch.MaxRetries,
		RateLimit:  cfg.Fetch.RateLimit,
		RateBurst:  cfg.Fetch.RateBurst,
		UserAgents: cfg.Fetch.UserAgents,
		Headers:    cfg.Fetch.Headers,
	})

	var source fetch.HTMLSource = httpClient
	if cfg.Browser.Enabled {
		source = browser.NewClient(browser.Config{
			Headless:      cfg.BrowserHeadless(),
			Timeout:       cfg.Browser.Timeout.Std(),
			WaitFor:       cfg.Browser.WaitFor,
			WaitDelay:     cfg.Browser.WaitDelay.Std(),
			UserAgent:     cfg.Browser.UserAgent,
			DisableImages: true,
		})
	}
	pages := fetch.NewPageFetcher(source)

	var batch runner.BatchStatsFetcher
	var auth fetch.AuthenticatedFetcher
	if cfg.YouTube.APIKey != "" {
		yt, err := fetch.NewYouTubeClient(fetch.YouTubeConfig{
			APIKey:    cfg.YouTube.APIKey,
			Endpoint:  cfg.YouTube.Endpoint,
			BatchSize: cfg.YouTube.BatchSize,
			Timeout:   cfg.Fetch.Timeout.Std(),
		})
		if err != nil {
			return nil, err
		}
		batch = yt
		auth = yt
	} else if verbose {
		fmt.Println("No API key configured; all rows use page scraping")
	}

	var metrics *monitoring.MetricsManager
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetricsManager(monitoring.MetricsConfig{Namespace: cfg.Metrics.Namespace})
	}

	var progress func(done, total int)
	if verbose {
		progress = func(done, total int) {
			fmt.Printf("Processed %d/%d rows\n", done, total)
		}
	}

	return runner.New(runner.Options{
		Dispatcher: fetch.NewDispatcher(pages, auth),
		Batch:      batch,
		Store:      st,
		Backend:    cfg.Storage.Backend,
		Metrics:    metrics,
		Progress:   progress,
	})
}

// printReport summarizes a run on stdout. Row errors go to stderr so a
// redirected report stays clean.
func printReport(report types.Report, verbose bool) {
	fmt.Printf("Run completed in %s: %d written, %d skipped\n",
		report.Duration.Round(10*time.Millisecond), report.Written, report.Skipped)
	for _, rowErr := range report.Errors {
		fmt.Fprintf(os.Stderr, "  row %d (%s): %s\n", rowErr.RowIndex, rowErr.URL, rowErr.Message)
	}
	if verbose && len(report.Errors) == 0 {
		fmt.Println("All rows processed without errors")
	}
}

// validateConfig loads and validates a configuration file.
func validateConfig(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}

	if hasFlag("--verbose") {
		fmt.Printf("Configuration details:\n")
		fmt.Printf("  Input file: %s\n", cfg.Input.File)
		fmt.Printf("  Storage backend: %s\n", cfg.Storage.Backend)
		fmt.Printf("  Output format: %s\n", cfg.Output.Format)
		fmt.Printf("  API credential configured: %t\n", cfg.YouTube.APIKey != "")
	}

	fmt.Printf("Configuration file '%s' is valid\n", configFile)
}

// generateTemplate writes a starter config or input sheet to stdout.
func generateTemplate(args []string) error {
	templateType := "config"
	if len(args) > 0 && args[0] == "--type" && len(args) > 1 {
		templateType = args[1]
	}

	switch templateType {
	case "config":
		fmt.Print(config.GenerateTemplate())
		return nil
	case "input":
		return ingest.WriteTemplate(os.Stdout)
	default:
		return fmt.Errorf("unknown template type %q (want config or input)", templateType)
	}
}

// exportResults dumps stored results to a file in the requested format.
func exportResults(configFile string, args []string) {
	format := flagValue(args, "--format")
	outFile := flagValue(args, "--out")

	ctx := context.Background()

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
	if outFile == "" {
		outFile = cfg.Output.File
	}
	if outFile == "" {
		fmt.Fprintf(os.Stderr, "Error: no output file (use --out or set output.file)\n")
		os.Exit(1)
	}

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
	defer st.Close()

	if err := exportStored(ctx, cfg, st, format, outFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}

	fmt.Printf("Results exported to %s\n", outFile)
}

// exportStored lists every stored result and writes it through the
// output manager. An empty format falls back to the configured default
// or the file extension.
func exportStored(ctx context.Context, cfg *config.Config, st store.Store, format, path string) error {
	results, err := st.List(ctx, types.ResultFilter{})
	if err != nil {
		return err
	}

	manager, err := output.NewManager(cfg.Output.Format)
	if err != nil {
		return err
	}
	return manager.ExportFile(path, format, results)
}

// hasFlag checks if a flag is present in command line arguments.
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// flagValue returns the value following a flag in args, or "".
func flagValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// exitCode maps configuration errors to a distinct exit status so
// wrapper scripts can tell a bad config from a partial run failure.
func exitCode(err error) int {
	if kolerrors.IsConfiguration(err) {
		return 2
	}
	return 1
}

// printUsage displays help information.
func printUsage() {
	fmt.Println("KOLMetrics - Creator Content Engagement Metrics Pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kolmetrics run <config.yaml>                         Run the pipeline with a configuration file")
	fmt.Println("  kolmetrics validate <config.yaml>                    Validate a configuration file")
	fmt.Println("  kolmetrics template [--type <type>]                  Generate a starter template")
	fmt.Println("  kolmetrics export <config.yaml> [--format <fmt>] [--out <file>]")
	fmt.Println("                                                       Export stored results")
	fmt.Println("  kolmetrics version                                   Show version information")
	fmt.Println("  kolmetrics help                                      Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --verbose                                            Enable verbose output")
	fmt.Println()
	fmt.Println("Template types:")
	fmt.Println("  config      Pipeline configuration YAML (default)")
	fmt.Println("  input       Input link sheet CSV with sample rows")
}

// printVersion displays version information.
func printVersion() {
	fmt.Printf("KOLMetrics %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
