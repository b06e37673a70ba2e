// Package pipeline runs one preparation pass over a raw snapshot frame.
// Flow: select → repair → period filter → label → sample → derive → encode
// → (score) reconcile with the training schema → drop invalid rows
// → (train) save schema.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"attrition-prep/internal/cleaning"
	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
	"attrition-prep/internal/observability"
	"attrition-prep/internal/prep"
	"attrition-prep/internal/storage"
)

// DefaultSchemaName names the saved training schema when Options leaves it empty.
const DefaultSchemaName = "attrition"

// Options for creating a Pipeline.
type Options struct {
	// Schema stores the training artifact. Optional for training, required for scoring.
	Schema     storage.SchemaStore
	SchemaName string

	Logger  logrus.FieldLogger
	Metrics *observability.Metrics // optional

	// Clock stamps artifacts and timings. Defaults to time.Now in UTC.
	Clock func() time.Time
	// RunID overrides the generated run id.
	RunID string
}

// Pipeline prepares one training or scoring table per Run.
type Pipeline struct {
	cfg        config.Prep
	schema     storage.SchemaStore
	schemaName string
	log        logrus.FieldLogger
	metrics    *observability.Metrics
	clock      func() time.Time
	runID      string
}

// New validates cfg and creates a Pipeline. cfg is copied; later changes by
// the caller do not affect the pipeline.
func New(cfg config.Prep, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:        cfg.Clone(),
		schema:     opts.Schema,
		schemaName: opts.SchemaName,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		runID:      opts.RunID,
	}
	if p.schemaName == "" {
		p.schemaName = DefaultSchemaName
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if p.clock == nil {
		p.clock = func() time.Time { return time.Now().UTC() }
	}
	return p, nil
}

// Result contains the prepared table and what the run dropped on the way.
type Result struct {
	RunID   string
	Mode    config.Mode
	Dataset *domain.PreparedDataset

	// Cutoffs are the sampled observation points, before cleaning removed rows.
	Cutoffs    []domain.CutoffRecord
	Exclusions []domain.Exclusion
	// Stale lists scored customers whose latest snapshot precedes the effective month.
	Stale []string

	Cleaning *cleaning.Report
	// Artifact is the schema saved (train) or loaded (score).
	Artifact *domain.SchemaArtifact
	// Mismatches and Reconciliation are set by scoring runs.
	Mismatches     []Mismatch
	Reconciliation *cleaning.Reconciliation

	Warnings []string
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	id  string
	log logrus.FieldLogger
	res *Result
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.res.Warnings = append(r.res.Warnings, msg)
	r.log.Warn(msg)
}

// stage logs the start of a phase and returns a func that records its duration.
func (r *run) stage(n int, name string) func() {
	r.log.WithField("stage", name).Infof("Phase %d: %s", n, name)
	start := r.clock()
	return func() { r.metrics.RecordStage(name, r.clock().Sub(start)) }
}

func (r *run) mode() string { return string(r.cfg.Mode) }

// Run prepares raw. raw is not modified.
func (p *Pipeline) Run(ctx context.Context, raw *frame.Frame) (res *Result, err error) {
	id := p.runID
	if id == "" {
		id = uuid.NewString()
	}
	r := &run{
		Pipeline: p,
		id:       id,
		log:      p.log.WithFields(logrus.Fields{"run_id": id, "mode": p.cfg.Mode}),
		res:      &Result{RunID: id, Mode: p.cfg.Mode},
	}

	start := p.clock()
	defer func() {
		finished := p.clock()
		p.metrics.RecordRun(r.mode(), err, finished.Sub(start), finished)
		if err != nil {
			r.log.WithError(err).Error("Pipeline failed")
		}
	}()

	return r.execute(ctx, raw)
}

func (r *run) execute(ctx context.Context, raw *frame.Frame) (*Result, error) {
	cfg := r.cfg

	// Phase 1: training schema (scoring only)
	if cfg.Mode == config.ModeScore {
		done := r.stage(1, "load schema")
		if err := r.loadSchema(ctx); err != nil {
			return nil, fmt.Errorf("phase 1 (load schema) failed: %w", err)
		}
		done()
	}

	// Phase 2: column selection and repair
	done := r.stage(2, "input")
	f, err := r.input(raw)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (input) failed: %w", err)
	}
	done()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: labeling and cutoff sampling
	done = r.stage(3, "sample")
	timelines, err := prep.BuildTimelines(f, cfg.GranularityKey, cfg.PeriodEndAttribute)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (sample) failed: %w", err)
	}
	r.metrics.SetCustomers(r.mode(), "input", len(timelines))
	r.log.WithField("customers", len(timelines)).Info("  Built timelines")

	labeler := prep.NewLabeler(f, cfg)
	if !labeler.HasStatus() {
		r.warn("status column %s missing: status rule disabled", cfg.StatusAttribute)
	}
	if !labeler.HasFunds() && cfg.FundsDropThreshold != 0 {
		r.warn("funds column %s missing or not numeric: funds-drop rule disabled", cfg.FundsAttribute)
	}
	timelines = labeler.Label(timelines)

	sample, err := r.sample(timelines)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (sample) failed: %w", err)
	}
	r.res.Cutoffs = sample.Cutoffs
	r.res.Exclusions = sample.Exclusions
	r.res.Stale = sample.Stale
	r.recordExclusions(sample)
	r.metrics.SetCustomers(r.mode(), "sampled", len(sample.Cutoffs))
	r.log.Infof("  Sampled %s", sample)
	if len(sample.Stale) > 0 {
		r.warn("%d customers have no snapshot in the effective month", len(sample.Stale))
	}
	done()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: window features
	done = r.stage(4, "derive")
	table, err := r.derive(ctx, f, timelines, sample.Cutoffs)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (derive) failed: %w", err)
	}
	done()

	// Phase 5: cleaning. Scoring aligns the columns with the training schema
	// before rows are dropped, so only model columns decide which customers
	// are scored.
	done = r.stage(5, "clean")
	opts := cleaning.OptionsFor(cfg)
	encoded, report, err := cleaning.Encode(table, opts)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (clean) failed: %w", err)
	}
	if cfg.Mode == config.ModeScore {
		if encoded, err = r.reconcile(encoded); err != nil {
			return nil, fmt.Errorf("phase 5 (clean) failed: %w", err)
		}
	}
	cleaned := cleaning.Finish(encoded, opts, report)
	if len(report.InfiniteNulled) > 0 {
		r.warn("infinite values in %v: affected customers not scored", report.InfiniteNulled)
	}
	r.res.Cleaning = report
	r.recordCleaning(report)
	r.log.WithFields(logrus.Fields{
		"columns_dropped": report.DroppedCount(),
		"rows_dropped":    report.RowsDropped,
	}).Info("  Cleaned table")
	done()

	ids := prep.CustomerIDs(sample.Cutoffs)
	kept := make([]string, len(report.Rows))
	for i, row := range report.Rows {
		kept[i] = ids[row]
	}
	dataset := &domain.PreparedDataset{Frame: cleaned, CustomerIDs: kept, KeyColumn: cfg.GranularityKey}

	// Phase 6: schema (training only)
	if cfg.Mode == config.ModeTrain {
		done = r.stage(6, "save schema")
		dataset.TargetColumn = cfg.TargetAttribute
		if err := r.saveSchema(ctx, cleaned.Names()); err != nil {
			return nil, fmt.Errorf("phase 6 (save schema) failed: %w", err)
		}
		done()
	}

	r.res.Dataset = dataset
	r.metrics.SetCustomers(r.mode(), "prepared", dataset.Len())
	r.log.WithFields(logrus.Fields{
		"customers": dataset.Len(),
		"columns":   dataset.Frame.Width(),
		"warnings":  len(r.res.Warnings),
	}).Info("Pipeline completed")
	return r.res, nil
}

// input selects the configured columns, checks the structural ones, drops
// keyless rows, fills join dates and applies the period filter.
func (r *run) input(raw *frame.Frame) (*frame.Frame, error) {
	cfg := r.cfg

	f, missing := prep.SelectColumns(raw, cfg.Columns())
	if len(missing) > 0 {
		r.warn("configured columns not in data: %v", missing)
	}
	if err := prep.RequireColumns(f, cfg); err != nil {
		return nil, err
	}

	f, n := prep.DropNullKeys(f, cfg.GranularityKey)
	if n > 0 {
		r.warn("dropped %d rows without %s", n, cfg.GranularityKey)
	}

	f, filled, err := prep.FillJoinDates(f, cfg)
	if err != nil {
		return nil, err
	}
	if filled > 0 {
		r.log.WithField("customers", filled).Info("  Filled missing join dates")
	}

	var from, to time.Time
	switch cfg.Mode {
	case config.ModeTrain:
		if from, err = cfg.Earliest(); err != nil {
			return nil, err
		}
		if to, err = cfg.Latest(); err != nil {
			return nil, err
		}
	case config.ModeScore:
		if to, err = cfg.Effective(); err != nil {
			return nil, err
		}
	}
	return prep.FilterPeriod(f, cfg.PeriodEndAttribute, from, to)
}

func (r *run) sample(timelines []domain.Timeline) (*prep.Sample, error) {
	if r.cfg.Mode == config.ModeScore {
		effective, err := r.cfg.Effective()
		if err != nil {
			return nil, err
		}
		return prep.ScoringCutoffs(timelines, r.cfg, effective)
	}
	return prep.SampleTrainingCutoffs(timelines, r.cfg, prep.NewRand(r.cfg.Seed))
}

// derive builds the per-customer table: window features, tenure and, for
// training, the target.
func (r *run) derive(ctx context.Context, f *frame.Frame, timelines []domain.Timeline, cutoffs []domain.CutoffRecord) (*frame.Frame, error) {
	cfg := r.cfg

	derived, err := prep.DeriveWindowFeatures(ctx, f, timelines, cutoffs, cfg)
	if err != nil {
		return nil, err
	}
	if len(derived.Skipped) > 0 {
		r.warn("derive columns absent or not numeric, skipped: %v", derived.Skipped)
	}
	for j, name := range derived.Columns {
		empty := 0
		for _, sum := range derived.Summaries {
			if sum.Stats[j].Count == 0 {
				empty++
			}
		}
		if empty > 0 {
			r.log.WithFields(logrus.Fields{"column": name, "customers": empty}).Info("  No values in window")
		}
	}

	out, ok, err := prep.AddTenure(derived.Frame, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.warn("join date column %s missing or not a date: %s not added", cfg.JoinDateAttribute, cfg.TenureAttribute)
	}

	if cfg.Mode == config.ModeTrain {
		if out, err = prep.AddTarget(out, cfg.TargetAttribute, cutoffs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// reconcile aligns an encoded scoring frame with the training columns.
func (r *run) reconcile(f *frame.Frame) (*frame.Frame, error) {
	artifact := r.res.Artifact
	aligned, rec, err := cleaning.Reconcile(f, artifact.Columns, artifact.Config.TargetAttribute)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	r.res.Reconciliation = rec
	if !rec.Changed() {
		r.log.Info("  Scoring columns match the training schema")
		return aligned, nil
	}
	if len(rec.Added) > 0 {
		r.warn("training columns missing at scoring, zero-filled: %v", rec.Added)
	}
	if len(rec.Dropped) > 0 {
		r.warn("scoring columns unknown to training, dropped: %v", rec.Dropped)
	}
	return aligned, nil
}

func (r *run) saveSchema(ctx context.Context, columns []string) error {
	artifact := &domain.SchemaArtifact{
		Name:      r.schemaName,
		RunID:     r.id,
		CreatedAt: r.clock(),
		Config:    r.cfg.Clone(),
		Columns:   columns,
	}
	r.res.Artifact = artifact
	if r.schema == nil {
		r.log.Warn("  No schema store configured: training schema not saved")
		return nil
	}
	if err := r.schema.Save(ctx, artifact); err != nil {
		return err
	}
	r.log.WithField("columns", len(columns)).Info("  Saved training schema")
	return nil
}

// loadSchema reads the training artifact and compares its configuration
// with the scoring configuration.
func (r *run) loadSchema(ctx context.Context) error {
	if r.schema == nil {
		return fmt.Errorf("%w: no schema store configured", ErrSchemaRequired)
	}
	artifact, err := r.schema.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrSchemaRequired, err)
	}
	if err != nil {
		return err
	}
	r.res.Artifact = artifact
	r.log.WithFields(logrus.Fields{
		"training_run_id": artifact.RunID,
		"columns":         len(artifact.Columns),
	}).Info("  Loaded training schema")

	mismatches := CompareConfig(artifact.Config, r.cfg)
	r.res.Mismatches = mismatches
	if len(mismatches) == 0 {
		return nil
	}
	if r.cfg.StrictSchema {
		return fmt.Errorf("%w: %v", ErrConfigMismatch, mismatches)
	}
	for _, m := range mismatches {
		r.warn("configuration differs from training: %s", m)
	}
	return nil
}

func (r *run) recordExclusions(s *prep.Sample) {
	counts := s.ExclusionCounts()
	byReason := make(map[string]int, len(counts))
	for reason, n := range counts {
		byReason[string(reason)] = n
		r.log.WithFields(logrus.Fields{"reason": reason, "customers": n}).Info("  Excluded customers")
	}
	r.metrics.AddExclusions(r.mode(), byReason)
}

func (r *run) recordCleaning(report *cleaning.Report) {
	byRule := make(map[string]int, len(report.Dropped))
	for _, rule := range cleaning.Rules {
		cols, ok := report.Dropped[rule]
		if !ok {
			continue
		}
		byRule[string(rule)] = len(cols)
		r.log.WithField("rule", rule).Debugf("  Dropped columns: %v", cols)
	}
	r.metrics.AddCleaning(r.mode(), byRule, report.RowsDropped)
}
