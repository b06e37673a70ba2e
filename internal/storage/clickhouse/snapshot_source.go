package clickhouse

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

// SnapshotSource reads raw snapshots from a ClickHouse table.
type SnapshotSource struct {
	conn      *Conn
	table     string
	key       string
	periodEnd string
	until     time.Time
}

// NewSnapshotSource creates a source over table, ordered by (key, periodEnd).
func NewSnapshotSource(conn *Conn, table, key, periodEnd string) *SnapshotSource {
	return &SnapshotSource{conn: conn, table: table, key: key, periodEnd: periodEnd}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*SnapshotSource)(nil)

// Until returns a copy of the source that skips rows with a period end after t.
func (s *SnapshotSource) Until(t time.Time) *SnapshotSource {
	cp := *s
	cp.until = t
	return &cp
}

func (s *SnapshotSource) query() (string, []any, error) {
	q := squirrel.Select("*").
		From(quoteIdent(s.table)).
		OrderBy(quoteIdent(s.key), quoteIdent(s.periodEnd)).
		PlaceholderFormat(squirrel.Question)
	if !s.until.IsZero() {
		q = q.Where(squirrel.LtOrEq{quoteIdent(s.periodEnd): s.until})
	}
	return q.ToSql()
}

// Load reads all matching rows. Each column is scanned into its driver scan
// type; Decimal values are converted to float64.
func (s *SnapshotSource) Load(ctx context.Context) (*frame.Frame, error) {
	sql, args, err := s.query()
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	types := rows.ColumnTypes()
	values := make([][]any, len(types))
	for rows.Next() {
		dest := make([]any, len(types))
		for j, ct := range types {
			dest[j] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		for j, d := range dest {
			values[j] = append(values[j], normalize(d))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	cols := make([]*frame.Column, len(types))
	for j, ct := range types {
		cols[j] = frame.FromValues(ct.Name(), values[j])
	}
	if len(cols) == 0 {
		return frame.Empty(0), nil
	}
	return frame.New(cols...)
}

// normalize dereferences a scan destination and converts decimals.
// Nil pointers (Nullable columns) become nil.
func normalize(dest any) any {
	rv := reflect.ValueOf(dest)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch v := rv.Interface().(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	default:
		return v
	}
}
