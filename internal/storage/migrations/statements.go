package migrations

import (
	"errors"
	"fmt"
	"strings"
)

// statements splits a migration file into statements. -- comments are
// removed and semicolons inside single-quoted literals do not split.
// Migrations run on every start, so each statement must be guarded by
// IF [NOT] EXISTS.
func statements(sql string) ([]string, error) {
	var (
		out    []string
		b      strings.Builder
		quoted bool
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case quoted:
			b.WriteByte(ch)
			if ch != '\'' {
				continue
			}
			if i+1 < len(sql) && sql[i+1] == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			quoted = false
		case ch == '\'':
			quoted = true
			b.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			b.WriteByte(ch)
		}
	}
	if quoted {
		return nil, errors.New("unterminated string literal")
	}
	flush()

	for _, s := range out {
		if !guarded(s) {
			return nil, fmt.Errorf("statement without IF [NOT] EXISTS: %q", firstLine(s))
		}
	}
	return out, nil
}

func guarded(stmt string) bool {
	upper := strings.ToUpper(strings.Join(strings.Fields(stmt), " "))
	return strings.Contains(upper, " IF NOT EXISTS ") || strings.Contains(upper, " IF EXISTS ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
