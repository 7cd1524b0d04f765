package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/svbridge/internal/repositories"
	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
	"github.com/desertthunder/svbridge/internal/tasks"
	"github.com/desertthunder/svbridge/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	baseURL    services.BaseURLFunc
	generator  *services.Generator
	reconciler *tasks.Reconciler
	batcher    *tasks.TaskBatcher
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB, BaseURL and Generator are optional; when DB is nil each command opens the configured database.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	BaseURL    services.BaseURLFunc
	Generator  *services.Generator
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.BaseURL == nil {
		opts.BaseURL = opts.Config.GeneratorBaseURL
	}
	if opts.Generator == nil {
		opts.Generator = services.NewGeneratorFromConfig(opts.Config, opts.Logger)
	}

	gen := opts.Config.Generator
	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		baseURL:    opts.BaseURL,
		generator:  opts.Generator,
		reconciler: tasks.NewReconciler(opts.Generator, opts.BaseURL, nil, opts.Logger),
		batcher:    tasks.NewTaskBatcher(opts.Generator, gen.BatchWorkers, gen.BatchRate, opts.Logger),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, syncCommand, cascadeCommand, resolveCommand, integrationsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database returns the injected database, or opens and migrates the configured one.
// The returned func releases what was opened.
func (r *Runner) database() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

// stores builds the repositories over db.
func (r *Runner) stores(db *sql.DB) (*repositories.ConfigStore, *repositories.IntegrationRepository) {
	return repositories.NewConfigStore(repositories.NewSetsRepository(db), r.logger), repositories.NewIntegrationRepository(db)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
