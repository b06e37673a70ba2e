package prep

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
)

// Derived column suffixes.
const (
	SuffixMean          = "_mean"
	SuffixStd           = "_std"
	SuffixMin           = "_min"
	SuffixMax           = "_max"
	SuffixMaxMinRatio   = "_max_min_ratio"
	SuffixStdNorm       = "_std_norm"
	SuffixCurrentVsMean = "_current_vs_mean"
	SuffixSum           = "_sum"
)

// MomentumSuffix names the last/first ratio column for a window of w months.
func MomentumSuffix(w int) string {
	return fmt.Sprintf("_current_vs_%d_months_ago", w)
}

// Derived is the output of window feature derivation.
type Derived struct {
	// Frame has one row per cutoff record, in cutoff order: the latest
	// snapshot inside the window plus the derived columns.
	Frame *frame.Frame
	// Columns are the derive columns actually used.
	Columns []string
	// Skipped are requested derive columns that are absent or not numeric.
	Skipped []string
	// Summaries hold the window statistics behind each row of Frame.
	Summaries []domain.FeatureSummary
}

// DeriveColumns splits the requested derive columns into numeric columns
// present in f and the rest.
func DeriveColumns(f *frame.Frame, requested []string) (used, skipped []string) {
	for _, name := range requested {
		if c, ok := f.Column(name); ok && c.Kind() == frame.Numeric {
			used = append(used, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	return used, skipped
}

// DeriveWindowFeatures computes window statistics for every cutoff record
// and collapses each customer to the latest snapshot inside its window.
// Customers are processed on a pool of cfg.Workers goroutines; results are
// placed by index so the output does not depend on scheduling.
func DeriveWindowFeatures(ctx context.Context, f *frame.Frame, timelines []domain.Timeline, cutoffs []domain.CutoffRecord, cfg config.Prep) (*Derived, error) {
	used, skipped := DeriveColumns(f, cfg.DeriveColumns)
	cols := make([]*frame.Column, len(used))
	for i, name := range used {
		cols[i], _ = f.Column(name)
	}

	byID := make(map[string]int, len(timelines))
	for i, tl := range timelines {
		byID[tl.CustomerID] = i
	}

	summaries := make([]domain.FeatureSummary, len(cutoffs))

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, rec := range cutoffs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ti, ok := byID[rec.CustomerID]
			if !ok {
				return fmt.Errorf("no timeline for customer %s", rec.CustomerID)
			}
			summary, err := summarize(timelines[ti], rec, cols)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("derive window features: %w", err)
	}

	out, err := assemble(f, used, cfg, summaries)
	if err != nil {
		return nil, err
	}
	return &Derived{Frame: out, Columns: used, Skipped: skipped, Summaries: summaries}, nil
}

func summarize(tl domain.Timeline, rec domain.CutoffRecord, cols []*frame.Column) (domain.FeatureSummary, error) {
	lo, hi := tl.Window(rec.WindowStart, rec.Cutoff)
	if lo == hi {
		return domain.FeatureSummary{}, fmt.Errorf("%w: customer %s", ErrNoRowsInWindow, rec.CustomerID)
	}
	rows := tl.Rows[lo:hi]

	stats := make([]domain.WindowStats, len(cols))
	values := make([]float64, 0, len(rows))
	for j, col := range cols {
		values = values[:0]
		for _, r := range rows {
			if v := col.Float(r); !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		stats[j] = ComputeWindowStats(values)
	}

	return domain.FeatureSummary{
		CustomerID:  rec.CustomerID,
		Cutoff:      rec.Cutoff,
		WindowStart: rec.WindowStart,
		Row:         rows[len(rows)-1],
		Stats:       stats,
	}, nil
}

// ComputeWindowStats summarizes non-null values given in time order.
func ComputeWindowStats(values []float64) domain.WindowStats {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return domain.WindowStats{Mean: nan, Std: nan, Min: nan, Max: nan, First: nan, Last: nan}
	}
	s := domain.WindowStats{
		Count: n,
		Mean:  stat.Mean(values, nil),
		Std:   math.NaN(),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		First: values[0],
		Last:  values[n-1],
		Sum:   floats.Sum(values),
	}
	if n > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s
}

// assemble builds the collapsed frame: all input columns at each customer's
// latest window row, then per-column mean/std/min/max, then the ratio
// columns, then window sums for the configured summable columns.
func assemble(f *frame.Frame, used []string, cfg config.Prep, summaries []domain.FeatureSummary) (*frame.Frame, error) {
	rows := make([]int, len(summaries))
	for i, s := range summaries {
		rows[i] = s.Row
	}
	out := f.Take(rows)

	column := func(j int, pick func(domain.WindowStats) float64) []float64 {
		vals := make([]float64, len(summaries))
		for i, s := range summaries {
			vals[i] = pick(s.Stats[j])
		}
		return vals
	}

	var derived []*frame.Column
	for j, name := range used {
		derived = append(derived,
			frame.NewNumeric(name+SuffixMean, column(j, func(s domain.WindowStats) float64 { return s.Mean })),
			frame.NewNumeric(name+SuffixStd, column(j, func(s domain.WindowStats) float64 { return s.Std })),
			frame.NewNumeric(name+SuffixMin, column(j, func(s domain.WindowStats) float64 { return s.Min })),
			frame.NewNumeric(name+SuffixMax, column(j, func(s domain.WindowStats) float64 { return s.Max })),
		)
	}
	momentum := MomentumSuffix(cfg.ObservationWindow)
	for j, name := range used {
		derived = append(derived,
			frame.NewNumeric(name+SuffixMaxMinRatio, column(j, domain.WindowStats.MaxMinRatio)),
			frame.NewNumeric(name+SuffixStdNorm, column(j, domain.WindowStats.NormalizedStd)),
			frame.NewNumeric(name+SuffixCurrentVsMean, column(j, domain.WindowStats.CurrentVsMean)),
			frame.NewNumeric(name+momentum, column(j, domain.WindowStats.Momentum)),
		)
	}
	for _, name := range cfg.SumColumns {
		j := indexOf(used, name)
		if j < 0 {
			continue
		}
		derived = append(derived,
			frame.NewNumeric(name+SuffixSum, column(j, func(s domain.WindowStats) float64 { return s.Sum })))
	}

	for _, c := range derived {
		var err error
		if out, err = out.With(c); err != nil {
			return nil, fmt.Errorf("add %s: %w", c.Name(), err)
		}
	}
	return out, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
