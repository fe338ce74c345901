package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/datatools-io/batchload/internal/config"
	"github.com/datatools-io/batchload/internal/db"
	"github.com/datatools-io/batchload/internal/migrate"
	"github.com/datatools-io/batchload/internal/retry"
	"github.com/datatools-io/batchload/pkg/batchload"
)

// Environment variable overrides. Precedence: env > batchload.yaml.
const (
	envDBPath     = "BATCHLOAD_DB_PATH"
	envArchiveURL = "BATCHLOAD_ARCHIVE_URL"
)

// loadProject reads batchload.yaml from the project directory, after
// loading a .env file if one is present.
func loadProject(sourcePath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load(filepath.Join(sourcePath, ".env"))

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// buildLoadConfig resolves the project file into a validated LoadConfig.
// Relative paths are resolved against the project directory. timeout is the
// flag value; the yaml timeout applies only when the flag was not set.
func buildLoadConfig(projectCfg *config.ProjectConfig, sourcePath string, timeout time.Duration, timeoutSet, verbose bool) (batchload.LoadConfig, error) {
	dbPath := projectCfg.Database.Path
	if envPath := os.Getenv(envDBPath); envPath != "" {
		dbPath = envPath
	}

	cfg := batchload.LoadConfig{
		DatabasePath: resolvePath(sourcePath, dbPath),
		MaxOpenConns: projectCfg.Database.MaxOpenConns,
		Timeout:      timeout,
		Verbose:      verbose,
	}

	if projectCfg.Database.BusyTimeout != "" {
		parsed, err := time.ParseDuration(projectCfg.Database.BusyTimeout)
		if err != nil {
			return batchload.LoadConfig{}, fmt.Errorf("invalid busy_timeout in %s: %v: %w", config.ConfigFileName, err, batchload.ErrInvalidConfig)
		}
		cfg.BusyTimeout = parsed
	}

	if projectCfg.Migrations != "" {
		cfg.MigrationsDir = resolvePath(sourcePath, projectCfg.Migrations)
	}

	for _, ds := range projectCfg.Datasets {
		cfg.Datasets = append(cfg.Datasets, batchload.Dataset{
			File:       resolvePath(sourcePath, ds.File),
			Table:      ds.Table,
			Columns:    ds.Columns,
			PrimaryKey: ds.PrimaryKey,
			Truncate:   ds.Truncate,
		})
	}

	cfg.Retry = batchload.RetryPolicy{
		MaxAttempts: projectCfg.Retry.MaxAttempts,
		Delay:       batchload.DefaultRetryDelay,
		Backoff:     projectCfg.Retry.Backoff,
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = batchload.DefaultRetryMaxAttempts
	}
	if projectCfg.Retry.Delay != "" {
		parsed, err := time.ParseDuration(projectCfg.Retry.Delay)
		if err != nil {
			return batchload.LoadConfig{}, fmt.Errorf("invalid retry delay in %s: %v: %w", config.ConfigFileName, err, batchload.ErrInvalidConfig)
		}
		cfg.Retry.Delay = parsed
	}

	if !timeoutSet && projectCfg.Timeout != "" {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return batchload.LoadConfig{}, fmt.Errorf("invalid timeout in %s: %v: %w", config.ConfigFileName, err, batchload.ErrInvalidConfig)
		}
		cfg.Timeout = parsed
	}

	if err := cfg.Validate(); err != nil {
		return batchload.LoadConfig{}, err
	}
	return cfg, nil
}

// buildFetchConfig resolves the archive section into a FetchConfig.
func buildFetchConfig(projectCfg *config.ProjectConfig, sourcePath string, verbose bool) (batchload.FetchConfig, error) {
	url := projectCfg.Archive.URL
	if envURL := os.Getenv(envArchiveURL); envURL != "" {
		url = envURL
	}

	cfg := batchload.FetchConfig{
		URL:         url,
		ArchivePath: resolvePath(sourcePath, projectCfg.Archive.Path),
		SHA256:      projectCfg.Archive.SHA256,
		ExtractDir:  resolvePath(sourcePath, projectCfg.Archive.ExtractDir),
		Verbose:     verbose,
	}
	if err := cfg.Validate(); err != nil {
		return batchload.FetchConfig{}, err
	}
	return cfg, nil
}

// buildExecutor constructs the retry executor from the policy. The default
// growth is a fixed delay; exponential growth is the explicit opt-in.
func buildExecutor(policy batchload.RetryPolicy) *retry.Executor {
	classifier := retry.NewSQLiteErrorClassifier()

	var strategy batchload.BackoffStrategy
	switch policy.Backoff {
	case "exponential":
		strategy = retry.NewExponentialBackoff(policy.MaxAttempts,
			retry.WithInitialDelay(policy.Delay),
		)
	default:
		strategy = retry.NewFixedBackoff(policy.MaxAttempts, policy.Delay)
	}

	return retry.NewExecutor(classifier, strategy)
}

// applyMigrations opens a short-lived handle to provision the schema. The
// ingestion run opens (and owns) its own handle afterwards.
func applyMigrations(ctx context.Context, cfg batchload.LoadConfig, logger batchload.Logger) error {
	if cfg.MigrationsDir == "" {
		logger.Verbose("no migrations directory configured, skipping schema provisioning")
		return nil
	}

	handle, err := db.Open(ctx, db.Config{
		Path:         cfg.DatabasePath,
		MaxOpenConns: cfg.MaxOpenConns,
		BusyTimeout:  cfg.BusyTimeout,
	})
	if err != nil {
		return err
	}
	defer handle.Close()

	applied, err := migrate.New(handle, cfg.MigrationsDir, logger).Apply(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if applied > 0 {
		logger.Info("%d migration(s) applied", applied)
	} else {
		logger.Verbose("schema is up to date")
	}
	return nil
}

// runContext builds the run's context: the catastrophic-failure timeout
// plus SIGINT/SIGTERM cancellation.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = batchload.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
		cancel()
	}()

	return ctx, cancel
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
