// Package cleaning turns the assembled per-customer frame into a numeric
// model-ready table and aligns scoring tables with the training columns.
package cleaning

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"attrition-prep/internal/config"
	"attrition-prep/internal/frame"
)

// NumPrefix marks count columns whose nulls mean zero.
const NumPrefix = "NUM_"

// Rule names a column drop rule of the cleaner.
type Rule string

const (
	RuleCardinality  Rule = "cardinality"
	RuleTimeColumn   Rule = "time_column"
	RuleNullFraction Rule = "null_fraction"
	RuleConstant     Rule = "constant"
	RuleNamePattern  Rule = "name_pattern"
	RuleKey          Rule = "key"
	RuleInfinite     Rule = "infinite"
)

// Rules lists the drop rules in application order.
var Rules = []Rule{
	RuleCardinality, RuleTimeColumn, RuleNullFraction, RuleConstant,
	RuleNamePattern, RuleKey, RuleInfinite,
}

// Options control one cleaning pass.
type Options struct {
	Mode config.Mode
	// Key is the customer identifier column; it is never encoded and is dropped.
	Key string
	// Target is exempt from the null-fraction and constant rules.
	Target               string
	CategoricalThreshold int
	MaxNullFraction      float64
}

// OptionsFor derives cleaner options from the prep configuration.
func OptionsFor(cfg config.Prep) Options {
	return Options{
		Mode:                 cfg.Mode,
		Key:                  cfg.GranularityKey,
		Target:               cfg.TargetAttribute,
		CategoricalThreshold: cfg.CategoricalThreshold,
		MaxNullFraction:      cfg.MaxNullFraction,
	}
}

// Report describes what a cleaning pass removed.
type Report struct {
	Dropped map[Rule][]string
	// Encoded maps each one-hot encoded column to its dummy columns.
	Encoded    map[string][]string
	ZeroFilled []string
	// Rows are the input row indexes that survived, in order.
	Rows        []int
	RowsDropped int
	// InfiniteNulled are scoring columns whose infinite cells were nulled.
	InfiniteNulled []string
}

// DroppedCount returns the number of columns dropped by all rules.
func (r *Report) DroppedCount() int {
	n := 0
	for _, cols := range r.Dropped {
		n += len(cols)
	}
	return n
}

func (r *Report) drop(rule Rule, name string) {
	r.Dropped[rule] = append(r.Dropped[rule], name)
}

// Clean applies the cleaning rules in order:
//   - text columns with more than CategoricalThreshold levels, or exactly one, are dropped
//   - time columns are dropped
//   - remaining text columns are one-hot encoded (sorted levels, first level dropped)
//   - NUM_ columns are zero-filled
//   - training only: columns over MaxNullFraction nulls, else constant columns, are dropped
//   - columns named *TIMESTAMP or containing ROW_ID/ROWID are dropped
//   - the key column is dropped
//   - infinite values are handled, then rows with any null are dropped
//
// In training mode the constant rule runs again after row removal, so
// cleaning an already cleaned frame drops nothing.
//
// Clean is Encode followed by Finish. Scoring runs reconcile between the two
// so that only the training columns decide which rows survive.
func Clean(f *frame.Frame, opts Options) (*frame.Frame, *Report, error) {
	out, r, err := Encode(f, opts)
	if err != nil {
		return nil, nil, err
	}
	return Finish(out, opts, r), r, nil
}

// Encode applies every rule of Clean except the last: it keeps all rows.
func Encode(f *frame.Frame, opts Options) (*frame.Frame, *Report, error) {
	r := &Report{
		Dropped: make(map[Rule][]string),
		Encoded: make(map[string][]string),
	}

	var kept, encode []*frame.Column
	for _, c := range f.Columns() {
		switch {
		case c.Name() == opts.Key:
			kept = append(kept, c)
		case c.Kind() == frame.Time:
			r.drop(RuleTimeColumn, c.Name())
		case c.Kind() == frame.Text:
			n := len(levels(c))
			if n > opts.CategoricalThreshold || n == 1 {
				r.drop(RuleCardinality, c.Name())
				continue
			}
			encode = append(encode, c)
		default:
			kept = append(kept, c)
		}
	}

	names := make(map[string]struct{}, len(kept))
	for _, c := range kept {
		names[c.Name()] = struct{}{}
	}
	for _, c := range encode {
		dummies := oneHot(c)
		for _, d := range dummies {
			if _, dup := names[d.Name()]; dup {
				return nil, nil, fmt.Errorf("encode %s: %w: %s", c.Name(), frame.ErrDuplicateColumn, d.Name())
			}
			names[d.Name()] = struct{}{}
			r.Encoded[c.Name()] = append(r.Encoded[c.Name()], d.Name())
		}
		kept = append(kept, dummies...)
	}

	for i, c := range kept {
		if strings.HasPrefix(c.Name(), NumPrefix) && c.Kind() == frame.Numeric && c.NullCount() > 0 {
			kept[i] = zeroFill(c)
			r.ZeroFilled = append(r.ZeroFilled, c.Name())
		}
	}

	out, err := frame.New(kept...)
	if err != nil {
		return nil, nil, err
	}
	if len(kept) == 0 {
		out = frame.Empty(f.Len())
	}

	if opts.Mode == config.ModeTrain {
		out = dropSparseOrConstant(out, opts, r)
	}

	var named []string
	for _, name := range out.Names() {
		if name != opts.Key && matchesDropPattern(name) {
			named = append(named, name)
			r.drop(RuleNamePattern, name)
		}
	}
	out = out.Without(named...)

	if out.Has(opts.Key) {
		r.drop(RuleKey, opts.Key)
		out = out.Without(opts.Key)
	}

	r.Rows = make([]int, out.Len())
	for i := range r.Rows {
		r.Rows[i] = i
	}
	return out, r, nil
}

// Finish applies the last rule to a frame returned by Encode and records
// the surviving rows in r. Training drops columns holding infinite values.
// Scoring columns are fixed by the training schema, so there infinite cells
// become nulls and only their rows are dropped.
func Finish(f *frame.Frame, opts Options, r *Report) *frame.Frame {
	out := f
	var infinite []string
	for _, c := range out.Columns() {
		if !hasInf(c) {
			continue
		}
		infinite = append(infinite, c.Name())
		if opts.Mode == config.ModeTrain {
			r.drop(RuleInfinite, c.Name())
		}
	}
	if opts.Mode == config.ModeTrain {
		out = out.Without(infinite...)
	} else if len(infinite) > 0 {
		out = nullInf(out, infinite)
		r.InfiniteNulled = infinite
	}

	cols := out.Columns()
	r.Rows = make([]int, 0, out.Len())
	for i := 0; i < out.Len(); i++ {
		if !anyNull(cols, i) {
			r.Rows = append(r.Rows, i)
		}
	}
	r.RowsDropped = out.Len() - len(r.Rows)
	if r.RowsDropped > 0 {
		out = out.Take(r.Rows)
	}

	if opts.Mode == config.ModeTrain {
		var constant []string
		for _, c := range out.Columns() {
			if c.Name() != opts.Target && isConstant(c) {
				constant = append(constant, c.Name())
				r.drop(RuleConstant, c.Name())
			}
		}
		out = out.Without(constant...)
	}

	return out
}

// nullInf replaces the infinite cells of the named columns with nulls.
func nullInf(f *frame.Frame, names []string) *frame.Frame {
	cols := f.Columns()
	for i, c := range cols {
		if slices.Contains(names, c.Name()) {
			v := c.Floats()
			for k := range v {
				if math.IsInf(v[k], 0) {
					v[k] = math.NaN()
				}
			}
			cols[i] = frame.NewNumeric(c.Name(), v)
		}
	}
	out, _ := frame.New(cols...)
	return out
}

func dropSparseOrConstant(f *frame.Frame, opts Options, r *Report) *frame.Frame {
	var drop []string
	for _, c := range f.Columns() {
		if c.Name() == opts.Target || c.Name() == opts.Key {
			continue
		}
		if f.Len() > 0 && float64(c.NullCount())/float64(f.Len()) > opts.MaxNullFraction {
			drop = append(drop, c.Name())
			r.drop(RuleNullFraction, c.Name())
		} else if isConstant(c) {
			drop = append(drop, c.Name())
			r.drop(RuleConstant, c.Name())
		}
	}
	return f.Without(drop...)
}

// levels returns the sorted distinct non-null values of a text column.
func levels(c *frame.Column) []string {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if s, ok := c.Str(i); ok {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// oneHot returns one 0/1 column per level except the first.
// Null cells are zero in every dummy.
func oneHot(c *frame.Column) []*frame.Column {
	lv := levels(c)
	if len(lv) < 2 {
		return nil
	}
	index := make(map[string]int, len(lv))
	for i, l := range lv {
		index[l] = i
	}
	values := make([][]float64, len(lv)-1)
	for k := range values {
		values[k] = make([]float64, c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		s, ok := c.Str(i)
		if !ok {
			continue
		}
		if k := index[s]; k > 0 {
			values[k-1][i] = 1
		}
	}
	out := make([]*frame.Column, len(values))
	for k, v := range values {
		out[k] = frame.NewNumeric(c.Name()+"_"+lv[k+1], v)
	}
	return out
}

func zeroFill(c *frame.Column) *frame.Column {
	v := c.Floats()
	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = 0
		}
	}
	return frame.NewNumeric(c.Name(), v)
}

// isConstant reports whether a numeric column has min == max over its
// non-null values. Columns without values are not constant.
func isConstant(c *frame.Column) bool {
	if c.Kind() != frame.Numeric {
		return false
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	seen := false
	for _, v := range c.Floats() {
		if math.IsNaN(v) {
			continue
		}
		seen = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return seen && lo == hi
}

func matchesDropPattern(name string) bool {
	upper := strings.ToUpper(name)
	return strings.HasSuffix(upper, "TIMESTAMP") ||
		strings.Contains(upper, "ROW_ID") ||
		strings.Contains(upper, "ROWID")
}

func hasInf(c *frame.Column) bool {
	if c.Kind() != frame.Numeric {
		return false
	}
	for _, v := range c.Floats() {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func anyNull(cols []*frame.Column, row int) bool {
	for _, c := range cols {
		if c.IsNull(row) {
			return true
		}
	}
	return false
}
