package prep

import (
	"math"

	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
)

// NoPriorRatio is the month-over-month funds ratio used when there is no
// previous snapshot or the division is undefined. It never counts as a drop.
const NoPriorRatio = 9999.0

// FundsRatio returns cur / prev, or NoPriorRatio when the result is NaN
// (a null on either side, or 0/0).
func FundsRatio(prev, cur float64) float64 {
	r := cur / prev
	if math.IsNaN(r) {
		return NoPriorRatio
	}
	return r
}

// Labeler flags attrition events on customer timelines.
type Labeler struct {
	status    *frame.Column
	funds     *frame.Column
	value     string
	threshold float64
}

// NewLabeler reads the status and funds columns of f. A missing status
// column, or a missing or non-numeric funds column, disables that half of
// the rule.
func NewLabeler(f *frame.Frame, cfg config.Prep) *Labeler {
	l := &Labeler{value: cfg.AttritionStatus, threshold: cfg.FundsDropThreshold}
	if c, ok := f.Column(cfg.StatusAttribute); ok {
		l.status = c
	}
	if c, ok := f.Column(cfg.FundsAttribute); ok && c.Kind() == frame.Numeric {
		l.funds = c
	}
	return l
}

// HasStatus reports whether the status rule is active.
func (l *Labeler) HasStatus() bool { return l.status != nil }

// HasFunds reports whether the funds-drop rule is active.
func (l *Labeler) HasFunds() bool { return l.funds != nil && l.threshold != 0 }

// Label returns copies of the timelines with Monthly and Target set.
// A snapshot is an attrition month when its funds fell to at most
// (1 - threshold) of the previous snapshot's funds, or when its status
// equals the attrition status value. Target is the OR over the timeline.
func (l *Labeler) Label(timelines []domain.Timeline) []domain.Timeline {
	out := make([]domain.Timeline, len(timelines))
	for i, tl := range timelines {
		tl.Monthly = make([]bool, tl.Len())
		tl.Target = false
		for k, row := range tl.Rows {
			flagged := l.fundsDropped(tl, k) || l.statusMatches(row)
			tl.Monthly[k] = flagged
			tl.Target = tl.Target || flagged
		}
		out[i] = tl
	}
	return out
}

// ratio returns the month-over-month funds ratio of snapshot k.
func (l *Labeler) ratio(tl domain.Timeline, k int) float64 {
	if l.funds == nil || k == 0 {
		return NoPriorRatio
	}
	return FundsRatio(l.funds.Float(tl.Rows[k-1]), l.funds.Float(tl.Rows[k]))
}

func (l *Labeler) fundsDropped(tl domain.Timeline, k int) bool {
	if !l.HasFunds() {
		return false
	}
	return l.ratio(tl, k) <= 1-l.threshold
}

func (l *Labeler) statusMatches(row int) bool {
	if l.status == nil {
		return false
	}
	s, ok := l.status.Str(row)
	return ok && s == l.value
}
