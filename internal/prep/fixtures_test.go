package prep

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"attrition-prep/internal/config"
	"attrition-prep/internal/frame"
)

// snap is one monthly snapshot row used to build test frames.
type snap struct {
	id     string
	end    time.Time
	status string
	funds  float64
}

func monthEnd(y int, m time.Month) time.Time {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthly returns consecutive month-end snapshots starting at from, one per
// funds value, all with status "Active".
func monthly(id string, from time.Time, funds ...float64) []snap {
	y, m, _ := from.Date()
	out := make([]snap, len(funds))
	for i, f := range funds {
		out[i] = snap{id: id, end: monthEnd(y, m+time.Month(i)), status: "Active", funds: f}
	}
	return out
}

// flat returns n month-end snapshots with constant funds.
func flat(id string, from time.Time, n int) []snap {
	funds := make([]float64, n)
	for i := range funds {
		funds[i] = 100
	}
	return monthly(id, from, funds...)
}

func testPrep() config.Prep {
	p := config.DefaultPrep()
	p.ColumnsRequired = []string{"ID", "END", "STATUS", "FUNDS"}
	p.FeatureAttributes = nil
	p.DeriveColumns = []string{"FUNDS"}
	p.SumColumns = []string{"FUNDS"}
	p.GranularityKey = "ID"
	p.PeriodEndAttribute = "END"
	p.PeriodStartAttribute = "START"
	p.JoinDateAttribute = "JOINED"
	p.StatusAttribute = "STATUS"
	p.FundsAttribute = "FUNDS"
	p.Workers = 2
	return p
}

func snapshotFrame(t *testing.T, snaps []snap) *frame.Frame {
	t.Helper()
	ids := make([]string, len(snaps))
	ends := make([]time.Time, len(snaps))
	status := make([]string, len(snaps))
	valid := make([]bool, len(snaps))
	funds := make([]float64, len(snaps))
	for i, s := range snaps {
		ids[i] = s.id
		ends[i] = s.end
		status[i] = s.status
		valid[i] = s.status != ""
		funds[i] = s.funds
	}
	f, err := frame.New(
		frame.NewText("ID", ids, nil),
		frame.NewTime("END", ends),
		frame.NewText("STATUS", status, valid),
		frame.NewNumeric("FUNDS", funds),
	)
	require.NoError(t, err)
	return f
}

func concat(groups ...[]snap) []snap {
	var out []snap
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var nan = math.NaN()
