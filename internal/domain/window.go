package domain

import (
	"math"
	"time"
)

// WindowStats summarizes one numeric column over a customer's observation
// window. Null cells are skipped; Count is the number of non-null cells.
// With Count == 0 every statistic is NaN except Sum, which is 0.
type WindowStats struct {
	Count int
	Mean  float64
	Std   float64 // sample standard deviation, NaN when Count < 2
	Min   float64
	Max   float64
	First float64 // oldest non-null value in the window
	Last  float64 // newest non-null value in the window
	Sum   float64
}

// MaxMinRatio is Max / Min.
func (s WindowStats) MaxMinRatio() float64 { return s.Max / s.Min }

// NormalizedStd is Std / Mean, NaN when the mean is exactly zero.
func (s WindowStats) NormalizedStd() float64 {
	if s.Mean == 0 {
		return math.NaN()
	}
	return s.Std / s.Mean
}

// CurrentVsMean is Last / Mean.
func (s WindowStats) CurrentVsMean() float64 { return s.Last / s.Mean }

// Momentum is Last / First: the current value against the value at the start of the window.
func (s WindowStats) Momentum() float64 { return s.Last / s.First }

// FeatureSummary holds the window statistics of one sampled customer.
type FeatureSummary struct {
	CustomerID  string
	Cutoff      time.Time
	WindowStart time.Time
	Row         int           // frame row of the latest snapshot in the window
	Stats       []WindowStats // aligned with the derived column list
}
