package prep

import (
	"fmt"
	"math/rand/v2"
	"time"

	"attrition-prep/internal/calendar"
	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
)

// Sample is the outcome of cutoff sampling.
type Sample struct {
	Cutoffs    []domain.CutoffRecord
	Exclusions []domain.Exclusion
	// Stale lists scoring customers whose latest snapshot is older than the
	// effective month. They are still scored.
	Stale []string
}

// NewRand returns the random source for one run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// RandomCutoff shifts the first of from's month back by trunc(u*span) months.
func RandomCutoff(from time.Time, u float64, span int) time.Time {
	return calendar.AddMonths(calendar.FirstOfMonth(from), -int(u*float64(span)))
}

// SampleTrainingCutoffs chooses one cutoff per customer for a training run.
//
// Attrited customers are cut up to forecast_horizon months before the month
// of their first attrition event, and need observation_window months of
// history before the cutoff. Non-attrited customers need
// observation_window + forecast_horizon months of history and are cut at a
// random month that leaves at least forecast_horizon months after the cutoff.
//
// One draw is taken per attrited customer, then one per non-attrited customer
// with enough history, each group in timeline order. Output lists attrited
// customers first.
func SampleTrainingCutoffs(timelines []domain.Timeline, cfg config.Prep, rng *rand.Rand) (*Sample, error) {
	w, h := cfg.ObservationWindow, cfg.ForecastHorizon
	s := &Sample{}
	sufficient := 0

	var attrited, retained []domain.Timeline
	for _, tl := range timelines {
		if tl.Target {
			attrited = append(attrited, tl)
		} else {
			retained = append(retained, tl)
		}
	}

	for _, tl := range attrited {
		u := rng.Float64()
		first, _ := tl.FirstAttrition()
		cutoff := RandomCutoff(first, u, h)

		n := tl.CountBefore(cutoff)
		if n == 0 {
			s.exclude(tl.CustomerID, domain.ReasonNoHistoryBeforeCutoff)
			continue
		}
		if tl.Prefix(n).SpanMonths() < w {
			s.exclude(tl.CustomerID, domain.ReasonInsufficientHistory)
			continue
		}
		sufficient++
		s.add(tl, cutoff, w, true)
	}

	for _, tl := range retained {
		span := tl.SpanMonths()
		if span < w+h {
			s.exclude(tl.CustomerID, domain.ReasonInsufficientHistory)
			continue
		}
		u := rng.Float64()
		latest := calendar.AddMonths(tl.Latest(), 1-h)
		cutoff := RandomCutoff(latest, u, span-w-h)
		sufficient++
		s.add(tl, cutoff, w, false)
	}

	return s, s.check(sufficient)
}

// ScoringCutoffs sets the cutoff of every scoreable customer to the day after
// the effective date, so the window covers the observation_window months up
// to and including it. Customers that have already attrited are not scored.
func ScoringCutoffs(timelines []domain.Timeline, cfg config.Prep, effective time.Time) (*Sample, error) {
	w := cfg.ObservationWindow
	cutoff := effective.AddDate(0, 0, 1)
	s := &Sample{}
	sufficient := 0

	for _, tl := range timelines {
		if tl.Target {
			s.exclude(tl.CustomerID, domain.ReasonAlreadyAttrited)
			continue
		}
		if tl.SpanMonths() < w {
			s.exclude(tl.CustomerID, domain.ReasonInsufficientHistory)
			continue
		}
		sufficient++
		if latest := tl.Latest(); latest.Before(calendar.FirstOfMonth(effective)) {
			s.Stale = append(s.Stale, tl.CustomerID)
		}
		s.add(tl, cutoff, w, false)
	}

	return s, s.check(sufficient)
}

func (s *Sample) add(tl domain.Timeline, cutoff time.Time, window int, attrited bool) {
	start := calendar.AddMonths(cutoff, -window)
	if lo, hi := tl.Window(start, cutoff); lo == hi {
		s.exclude(tl.CustomerID, domain.ReasonNoRowsInWindow)
		return
	}
	s.Cutoffs = append(s.Cutoffs, domain.CutoffRecord{
		CustomerID:  tl.CustomerID,
		Cutoff:      cutoff,
		WindowStart: start,
		Attrited:    attrited,
	})
}

func (s *Sample) exclude(id string, reason domain.ExclusionReason) {
	s.Exclusions = append(s.Exclusions, domain.Exclusion{CustomerID: id, Reason: reason})
}

func (s *Sample) check(sufficient int) error {
	switch {
	case sufficient == 0:
		return ErrInsufficientHistory
	case len(s.Cutoffs) == 0:
		return ErrNoRowsInWindow
	default:
		return nil
	}
}

// ExclusionCounts tallies exclusions by reason.
func (s *Sample) ExclusionCounts() map[domain.ExclusionReason]int {
	out := make(map[domain.ExclusionReason]int)
	for _, e := range s.Exclusions {
		out[e.Reason]++
	}
	return out
}

// String summarizes the sample for logs.
func (s *Sample) String() string {
	attrited := 0
	for _, c := range s.Cutoffs {
		if c.Attrited {
			attrited++
		}
	}
	return fmt.Sprintf("%d cutoffs (%d attrited), %d excluded", len(s.Cutoffs), attrited, len(s.Exclusions))
}
