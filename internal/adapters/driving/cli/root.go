// Package cli provides the cobra command tree for evidence-rag.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Annotation keys controlling what a command needs built before it runs.
const (
	annotationNeeds = "needs"
	needsConfig     = "config"
	needsStore      = "store"
	needsUpstream   = "upstream"
)

// Options tell the builder what a command needs.
type Options struct {
	// ConfigPath overrides ~/.evidence-rag/config.toml.
	ConfigPath string

	// Memory keeps vectors in process memory instead of SQLite.
	Memory bool

	// Store requests the vector store and the services on top of it.
	Store bool

	// Upstream makes a missing OpenAI API key an error.
	Upstream bool
}

// App is everything a command may use. Services that could not be built
// for the requested Options are nil.
type App struct {
	Config      domain.Config
	ConfigStore driven.ConfigStore

	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService
	Query     driving.QueryService
	Evidence  driving.EvidenceService
	Status    driving.StatusService
	Scheduler driving.Scheduler

	// Ping checks upstream connectivity. Nil without an API key.
	Ping func(ctx context.Context) error

	// Close releases the store and upstream clients.
	Close func() error
}

// Builder constructs an App for the running command.
type Builder func(ctx context.Context, opts Options) (*App, error)

var (
	builder Builder
	app     *App

	configPath string
	verbose    bool
	useMemory  bool
)

var rootCmd = &cobra.Command{
	Use:   "evidence-rag",
	Short: "Answer compliance questions from an SSP, a scan report and evidence requests",
	Long: `evidence-rag ingests a system security plan document, a grype
vulnerability report and the evidence-request table into one vector store,
then answers questions with citations drawn from all three sources.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  prepare,
	PersistentPostRunE: finish,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.evidence-rag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "keep vectors in memory instead of SQLite")
}

// SetBuilder installs the function that wires the application.
func SetBuilder(b Builder) {
	builder = b
}

// SetApp installs a prebuilt App. The builder is not called while one is set.
func SetApp(a *App) {
	app = a
}

// Execute runs the root command. The App is released even when the
// command fails.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, release())
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	level := cmd.Annotations[annotationNeeds]
	if level == "" || app != nil {
		return nil
	}
	if builder == nil {
		return errors.New("application not configured")
	}

	opts := Options{
		ConfigPath: configPath,
		Memory:     useMemory,
		Store:      level != needsConfig,
		Upstream:   level == needsUpstream,
	}

	built, err := builder(cmd.Context(), opts)
	if err != nil {
		return err
	}
	app = built
	return nil
}

func finish(_ *cobra.Command, _ []string) error {
	return release()
}

func release() error {
	a := app
	if a == nil {
		return nil
	}
	if builder != nil {
		app = nil
	}
	if a.Close == nil {
		return nil
	}
	if err := a.Close(); err != nil {
		return fmt.Errorf("closing: %w", err)
	}
	return nil
}

func needs(level string) map[string]string {
	return map[string]string{annotationNeeds: level}
}

// current returns the installed App, or an error naming what is missing.
func current(what string, present func(*App) bool) (*App, error) {
	if app == nil || !present(app) {
		return nil, fmt.Errorf("%s not configured", what)
	}
	return app, nil
}
