// Package main provides the prep entry point.
// Executes: load snapshots → prepare (train or score) → write dataset, schema and metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"attrition-prep/internal/config"
	"attrition-prep/internal/logging"
	"attrition-prep/internal/observability"
	"attrition-prep/internal/pipeline"
	"attrition-prep/internal/storage"
	"attrition-prep/internal/storage/clickhouse"
	"attrition-prep/internal/storage/file"
	"attrition-prep/internal/storage/migrations"
	"attrition-prep/internal/storage/postgres"
)

func main() {
	mode := flag.String("mode", "", "Override prep mode: train or score")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Prep.Mode = config.Mode(*mode)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error in config: %v\n", err)
			os.Exit(1)
		}
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("Prep failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// Postgres pools by DSN, shared by the snapshot source and the schema store.
	pools := make(map[string]*postgres.Pool)
	pgPool := func(dsn string) (*postgres.Pool, error) {
		if p, ok := pools[dsn]; ok {
			return p, nil
		}
		p, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, p.Close)
		applied, err := migrations.RunPostgresMigrations(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.WithField("migrations", applied).Info("Postgres ready")
		pools[dsn] = p
		return p, nil
	}

	source, err := openSource(ctx, cfg, pgPool, &closers)
	if err != nil {
		return err
	}

	var schema storage.SchemaStore
	switch cfg.Output.SchemaStore {
	case "postgres":
		p, err := pgPool(cfg.Output.SchemaDSN)
		if err != nil {
			return err
		}
		schema = postgres.NewSchemaStore(p, cfg.Output.SchemaName)
	default:
		schema = file.NewSchemaStore(cfg.Output.SchemaPath)
	}

	metrics := observability.NewMetrics("")

	start := time.Now()
	raw, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	log.WithFields(logrus.Fields{
		"source":  cfg.Source.Kind,
		"rows":    raw.Len(),
		"columns": raw.Width(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Loaded snapshots")

	p, err := pipeline.New(cfg.Prep, pipeline.Options{
		Schema:     schema,
		SchemaName: cfg.Output.SchemaName,
		Logger:     log,
		Metrics:    metrics,
	})
	if err != nil {
		return err
	}

	result, runErr := p.Run(ctx, raw)
	if cfg.Output.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			log.WithError(err).Warn("Write metrics textfile failed")
		}
	}
	if runErr != nil {
		return runErr
	}

	if err := file.NewCSVSink(cfg.Output.DatasetPath).Write(ctx, result.Dataset); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	log.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"mode":      result.Mode,
		"customers": result.Dataset.Len(),
		"columns":   result.Dataset.Frame.Width(),
		"excluded":  len(result.Exclusions),
		"warnings":  len(result.Warnings),
		"output":    cfg.Output.DatasetPath,
	}).Info("Prep completed")
	return nil
}

// openSource builds the snapshot source for cfg.Source. Database sources
// are bounded by the effective date when scoring.
func openSource(ctx context.Context, cfg *config.Config, pgPool func(string) (*postgres.Pool, error), closers *[]func()) (storage.SnapshotSource, error) {
	var until time.Time
	if cfg.Prep.Mode == config.ModeScore {
		t, err := cfg.Prep.Effective()
		if err != nil {
			return nil, err
		}
		until = t
	}
	key, end := cfg.Prep.GranularityKey, cfg.Prep.PeriodEndAttribute

	switch cfg.Source.Kind {
	case "csv":
		return file.NewCSVSource(cfg.Source.Path, nil), nil
	case "xlsx":
		return file.NewXLSXSource(cfg.Source.Path, cfg.Source.Sheet, nil), nil
	case "postgres":
		p, err := pgPool(cfg.Source.DSN)
		if err != nil {
			return nil, err
		}
		src := postgres.NewSnapshotSource(p, cfg.Source.Table, key, end)
		if !until.IsZero() {
			src = src.Until(until)
		}
		return src, nil
	case "clickhouse":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		*closers = append(*closers, func() { _ = conn.Close() })
		src := clickhouse.NewSnapshotSource(conn, cfg.Source.Table, key, end)
		if !until.IsZero() {
			src = src.Until(until)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", config.ErrInvalid, cfg.Source.Kind)
	}
}
