package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soralit/gphoto-get/internal/config"
	"github.com/soralit/gphoto-get/internal/download"
	"github.com/soralit/gphoto-get/internal/gphotos"
	httpx "github.com/soralit/gphoto-get/internal/http"
	"github.com/soralit/gphoto-get/internal/model"
)

const longHelp = `Download every photo and video from a publicly shared Google Photos
album into a local directory.

The album URL can be the canonical share link (photos.google.com/share/...)
or the short link from the share dialog (photos.app.goo.gl/...). Re-running
against the same directory skips files that are already present.`

const exampleUsage = `  gphoto-get https://photos.app.goo.gl/37BDAZgMJ9XCPzke8
  gphoto-get -o ./vacation -c 8 https://photos.google.com/share/AF1Qip...`

func main() {
	var (
		outputDir   string
		concurrency int
		maxRetries  int
		cfgPath     string
		verbose     bool
		dryRun      bool
	)

	root := &cobra.Command{
		Use:     "gphoto-get <album-url>",
		Short:   "Download a shared Google Photos album",
		Long:    longHelp,
		Example: exampleUsage,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			settings, err := loadSettings(cmd, cfgPath, outputDir, concurrency, maxRetries)
			if err != nil {
				return err
			}

			log := newLogger(verbose)
			return run(cmd.Context(), settings, log, args[0], verbose, dryRun)
		},
	}

	root.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	root.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Number of parallel downloads")
	root.Flags().IntVar(&maxRetries, "max-retries", 3, "Attempt bound for transient failures")
	root.Flags().StringVar(&cfgPath, "config", "", "Path to config file (default $HOME/.gphoto-get/config.toml)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Enumerate the album without downloading")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// loadSettings reads the config file when present, then applies explicitly
// set flags on top so flags always win over file values.
func loadSettings(cmd *cobra.Command, cfgPath, outputDir string, concurrency, maxRetries int) (*config.Settings, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	settings := config.DefaultSettings()
	if path != "" {
		var err error
		settings, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if changed["output"] {
		settings.OutputDir = outputDir
	}
	if changed["concurrency"] {
		settings.Concurrency = concurrency
	}
	if changed["max-retries"] {
		settings.MaxRetries = maxRetries
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, settings *config.Settings, log zerolog.Logger, albumURL string, verbose, dryRun bool) error {
	client := httpx.NewClient(settings.UserAgent, settings.RequestTimeout())
	fetcher := gphotos.NewFetcher(client, log)

	ref, err := fetcher.ResolveShareURL(ctx, albumURL)
	if err != nil {
		return err
	}

	walker := gphotos.NewWalker(fetcher, gphotos.WalkerOptions{
		MaxRetries:      settings.MaxRetries,
		LoopGuardRounds: settings.LoopGuardRounds,
		RetryCooldown:   settings.RetryCooldown,
		RetryExponent:   settings.RetryExponent,
	}, log)

	manifest, err := walker.Walk(ctx, ref)
	if err != nil {
		return err
	}

	if len(manifest) == 0 {
		fmt.Println("No media found in album.")
		return nil
	}

	resolved := gphotos.ResolveAll(manifest)
	fmt.Printf("Found %d media item(s) in album.\n", len(resolved))

	if dryRun {
		for _, item := range resolved {
			fmt.Printf("  %-6s %s -> %s\n", item.Kind, item.ID, item.TargetFilename)
		}
		fmt.Println("\n[Dry run - not downloading]")
		return nil
	}

	manager := download.NewManager(settings, client, log, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		prefix := "   "
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}
		fmt.Println(prefix + event.Message)
	})

	if totalBytes := manager.PrefetchSizes(ctx, resolved); totalBytes > 0 {
		fmt.Printf("Expected size: %.2f MB\n", float64(totalBytes)/1024/1024)
	}

	results, err := manager.DownloadAll(ctx, resolved, settings.OutputDir)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nDownload cancelled.")
		}
		return err
	}

	summary := model.Summarize(results)
	fmt.Println("\nSummary:")
	fmt.Printf("  Total:      %d\n", summary.Total())
	fmt.Printf("  Downloaded: %d\n", summary.Success)
	fmt.Printf("  Skipped:    %d\n", summary.Skipped)
	if summary.Failed > 0 {
		fmt.Printf("  Failed:     %d (%s)\n", summary.Failed, strings.Join(summary.FailedIDs, ", "))
		for _, r := range results {
			if r.Outcome == model.OutcomeFailed && r.Reason != nil {
				fmt.Printf("    %s: %v\n", r.Entry.ID, r.Reason)
			}
		}
		return fmt.Errorf("%d item(s) failed", summary.Failed)
	}

	fmt.Printf("Output directory: %s\n", settings.OutputDir)
	return nil
}
