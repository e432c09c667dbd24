// Package cli provides the command-line interface for the journal viewer.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/client"
	"github.com/raphaelgruber/journal-viewer/internal/config"
	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/metrics"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/source"
	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose        bool
	instrumentName string

	// Global state built before every command
	cfg         config.Config
	logger      *slog.Logger
	closeLog    func() error
	collector   *metrics.Collector
	backend     *client.Client
	registry    *source.Registry
	instruments []models.Instrument
	instrument  models.Instrument
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jv",
	Short: "Browse experiment journals served by the journal backend",
	Long: `jv browses the experiment journals of ISIS instruments through a
journal backend running on this machine.

Journals come from sources: the built-in network archive or user-defined
sources whose index is generated by scanning run data. jv can print
journals and run data, search across journals, locate runs, and drive the
backend's generation and acquisition jobs.

Configuration is read from JV_* environment variables; user-defined sources
are read from JV_SOURCES_FILE.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if cmd.Name() == browseCmd.Name() {
			logger, closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
		} else {
			logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		}
		slog.SetDefault(logger)

		collector = metrics.NewCollector()
		backend = client.New(cfg.BackendURL,
			client.WithTimeout(cfg.ClientTimeout),
			client.WithCollector(collector),
			client.WithLogger(logger),
		)

		userSources, userInstruments, err := source.LoadUserSettings(cfg.SourcesFile)
		if err != nil {
			return fmt.Errorf("load user sources: %w", err)
		}
		registry, err = source.NewRegistry(logger, append(source.Builtins(), userSources...)...)
		if err != nil {
			return fmt.Errorf("build source registry: %w", err)
		}

		instruments = append(source.Instruments(), userInstruments...)
		name := cfg.Instrument
		if instrumentName != "" {
			name = instrumentName
		}
		var ok bool
		if instrument, ok = source.FindInstrument(instruments, name); !ok {
			return fmt.Errorf("unknown instrument %q", name)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && collector != nil {
			printMetrics(os.Stderr, collector.Snapshot())
		}
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newController creates a job controller over the global registry.
func newController() *jobs.Controller {
	return jobs.New(backend, registry,
		jobs.WithPollInterval(cfg.PollInterval),
		jobs.WithRequestTimeout(cfg.ClientTimeout),
		jobs.WithSortKey(cfg.SortKey),
		jobs.WithLogger(logger),
	)
}

// newViewer creates a viewer with its own job controller. Periodic update
// checks only run in the interactive browser.
func newViewer(interactive bool, extra ...viewer.Option) *viewer.Model {
	opts := []viewer.Option{
		viewer.WithLogger(logger),
		viewer.WithRequestTimeout(cfg.ClientTimeout),
	}
	if interactive {
		opts = append(opts, viewer.WithUpdateInterval(cfg.UpdateInterval))
	}
	opts = append(opts, extra...)
	return viewer.New(backend, registry, newController(), instrument, opts...)
}

// lookupSource resolves a source by ID or name.
func lookupSource(ref string) (*source.JournalSource, error) {
	src, ok := registry.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, ref)
	}
	return src, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print backend request metrics on exit")
	rootCmd.PersistentFlags().StringVarP(&instrumentName, "instrument", "i", "", "instrument (default $JV_INSTRUMENT)")

	// Add subcommands
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(journalsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(findRunCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(nexusCmd)
	rootCmd.AddCommand(browseCmd)
}
