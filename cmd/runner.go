package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/platforms"
	"github.com/mlefebvre/tunesync/internal/repositories"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/mlefebvre/tunesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// defaultUserEmail identifies the implicit local account used when no
// --user flag is given.
const defaultUserEmail = "local@tunesync"

// Runner holds all dependencies for CLI commands and provides methods for
// each command action. The database, registry and engine are wired lazily
// so that commands which never touch them (setup, help) stay cheap.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	registry   *platforms.Registry
	engine     *tasks.Engine
	users      *repositories.UserRepository
	creds      *repositories.CredentialRepository
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensure wires the database, registry, engine and repositories. Safe to call
// more than once; later calls are no-ops.
func (r *Runner) ensure() error {
	if r.engine != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
		r.ownsDB = true
	}

	if r.registry == nil {
		registry, err := platforms.NewRegistry(r.config)
		if err != nil {
			return fmt.Errorf("no platforms available: %w", err)
		}
		r.registry = registry
	}

	r.engine = tasks.NewEngine(r.db, r.registry, r.logger)
	r.users = repositories.NewUserRepository(r.db)
	r.creds = repositories.NewCredentialRepository(r.db)
	return nil
}

// resolveUser finds or creates the account the command acts for.
func (r *Runner) resolveUser(cmd *cli.Command) (*models.User, error) {
	email := cmd.String("user")
	if email == "" {
		email = defaultUserEmail
	}

	user, err := r.users.FindOrCreateByEmail(email, "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.ownsDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
