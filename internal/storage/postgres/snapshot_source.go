package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

// SnapshotSource reads raw snapshots from a PostgreSQL table. Every column
// of the table is loaded; kinds follow the column types.
type SnapshotSource struct {
	pool      *Pool
	table     string
	key       string
	periodEnd string
	until     time.Time
}

// NewSnapshotSource creates a source over table, ordered by (key, periodEnd).
func NewSnapshotSource(pool *Pool, table, key, periodEnd string) *SnapshotSource {
	return &SnapshotSource{pool: pool, table: table, key: key, periodEnd: periodEnd}
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
		PlaceholderFormat(squirrel.Dollar)
	if !s.until.IsZero() {
		q = q.Where(squirrel.LtOrEq{quoteIdent(s.periodEnd): s.until})
	}
	return q.ToSql()
}

// Load reads all matching rows.
func (s *SnapshotSource) Load(ctx context.Context) (*frame.Frame, error) {
	sql, args, err := s.query()
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	values := make([][]any, len(fields))
	for rows.Next() {
		row, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read snapshot row: %w", err)
		}
		for j, v := range row {
			values[j] = append(values[j], normalize(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	cols := make([]*frame.Column, len(fields))
	for j, fd := range fields {
		cols[j] = frame.FromValues(fd.Name, values[j])
	}
	if len(cols) == 0 {
		return frame.Empty(0), nil
	}
	return frame.New(cols...)
}

// normalize converts driver values the frame does not know about.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return math.NaN()
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time
	default:
		return v
	}
}
