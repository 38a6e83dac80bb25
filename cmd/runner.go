package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/blissify/internal/repositories"
	"github.com/desertthunder/blissify/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	getenv     func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Getenv     func(string) string
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		getenv:     opts.Getenv,
	}
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songsCommand, cacheCommand, playlistCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config, then applies the environment and validates the result.
//
// A missing config file leaves the defaults in place; 'setup database' creates it.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		r.logger.Warn("config file not found, using defaults", "path", path)
	}
	r.configPath = path

	r.config.ApplyEnv(r.getenv)
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// store bundles the repositories of one open database.
type store struct {
	db    *sql.DB
	songs *repositories.SongRepository
	runs  *repositories.RunRepository
	cache repositories.CountingCache
	close io.Closer
}

func (s *store) Close() error {
	return errors.Join(s.close.Close(), s.db.Close())
}

// openStore opens the fingerprint database, applies pending migrations and opens the configured pair cache.
func (r *Runner) openStore() (*store, error) {
	path, err := r.config.DatabasePath()
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	songs := repositories.NewSongRepository(db)

	var badgerDir string
	if r.config.Cache.Backend == shared.BackendBadger {
		if badgerDir, err = r.config.BadgerDir(); err != nil {
			db.Close()
			return nil, err
		}
	}

	cache, closer, err := repositories.OpenPairCache(r.config.Cache.Backend, songs, badgerDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open pair cache: %w", err)
	}

	r.logger.Debug("opened store", "path", path, "cache", r.config.Cache.Backend)
	return &store{
		db:    db,
		songs: songs,
		runs:  repositories.NewRunRepository(db),
		cache: cache,
		close: closer,
	}, nil
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
