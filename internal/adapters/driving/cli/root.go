// Package cli provides the shelfsearch command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/config/overlay"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// annotationNoServices marks commands that run without bootstrapping.
const annotationNoServices = "shelfsearch/no-services"

var version = "dev"

// Persistent flags.
var (
	verbose     bool
	configDir   string
	libraryPath string
	ephemeral   bool
)

// overrides resolves SHELFSEARCH_* variables and bound flags.
var overrides = overlay.NewViper()

// Services used by commands. Set by the bootstrap or by tests.
var (
	researchService driving.ResearchService
	libraryService  driving.LibraryService
	settingsService driving.SettingsService
	metricsRecorder mcp.Metrics
	libraryErr      error
	background      func(ctx context.Context)
	closeServices   func() error
)

// Options carries the persistent flags resolved before services are built.
type Options struct {
	ConfigDir string
	Ephemeral bool
	Verbose   bool

	// Overrides resolves environment and flag overrides of stored settings.
	Overrides *viper.Viper
}

// Services holds what commands run against.
type Services struct {
	Research driving.ResearchService
	Library  driving.LibraryService
	Settings driving.SettingsService
	Metrics  mcp.Metrics

	// LibraryErr explains why Research and Library are nil.
	LibraryErr error

	// Background runs until ctx is done. Optional.
	Background func(ctx context.Context)

	// Close releases held resources. Optional.
	Close func() error
}

// BootstrapFunc builds services once flags are parsed.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var bootstrap BootstrapFunc

var rootCmd = &cobra.Command{
	Use:   "shelfsearch",
	Short: "Research engine for a Calibre library",
	Long: `shelfsearch answers questions over a Calibre e-book library.

It plans keyword queries, searches titles and descriptions in metadata.db,
gathers excerpts and composes a cited answer. The same engine is exposed
to AI assistants as MCP tools through 'shelfsearch serve'.

Settings live in ~/.shelfsearch/config.toml and can be overridden with
SHELFSEARCH_* environment variables, e.g. SHELFSEARCH_LLM_PROVIDER=ollama.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.shelfsearch)")
	flags.StringVar(&libraryPath, "library", "", "Calibre library directory containing metadata.db")
	flags.BoolVar(&ephemeral, "ephemeral", false, "keep settings in memory only")

	_ = overrides.BindPFlag("library.path", flags.Lookup("library"))
}

// Execute runs the root command with the given bootstrap.
func Execute(ctx context.Context, b BootstrapFunc, ver string) error {
	bootstrap = b
	if ver != "" {
		version = ver
	}
	defer func() {
		if err := shutdownServices(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] == "true" || settingsService != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}

	svc, err := bootstrap(cmd.Context(), Options{
		ConfigDir: configDir,
		Ephemeral: ephemeral,
		Verbose:   verbose,
		Overrides: overrides,
	})
	if err != nil {
		return fmt.Errorf("starting shelfsearch: %w", err)
	}
	useServices(svc)
	return nil
}

func useServices(svc *Services) {
	researchService = svc.Research
	libraryService = svc.Library
	settingsService = svc.Settings
	metricsRecorder = svc.Metrics
	libraryErr = svc.LibraryErr
	background = svc.Background
	closeServices = svc.Close
}

func shutdownServices() error {
	closeFn := closeServices
	useServices(&Services{})
	if closeFn == nil {
		return nil
	}
	return closeFn()
}

// requireLibrary reports why library-backed commands cannot run.
func requireLibrary() error {
	if libraryService != nil {
		return nil
	}
	return unavailable("library service")
}

func requireResearch() error {
	if researchService != nil {
		return nil
	}
	return unavailable("research service")
}

func unavailable(what string) error {
	if libraryErr != nil {
		return fmt.Errorf("library unavailable: %w", libraryErr)
	}
	return fmt.Errorf("%s not configured", what)
}

// startBackground runs the background tasks until the returned stop is called.
func startBackground(ctx context.Context) (stop func()) {
	if background == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		background(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
