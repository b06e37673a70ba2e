package domain

import (
	"time"

	"attrition-prep/internal/config"
	"attrition-prep/internal/frame"
)

// PreparedDataset is the final table: one row per customer.
// CustomerIDs is aligned with the frame rows; the identifier is not a feature.
type PreparedDataset struct {
	Frame        *frame.Frame
	CustomerIDs  []string
	KeyColumn    string
	TargetColumn string // empty for scoring output
}

// Len returns the number of customers.
func (d *PreparedDataset) Len() int { return len(d.CustomerIDs) }

// Columns returns the frame column names in order.
func (d *PreparedDataset) Columns() []string { return d.Frame.Names() }

// SchemaArtifact is saved by training runs and read back by scoring runs.
type SchemaArtifact struct {
	Name      string      `json:"name"`
	RunID     string      `json:"run_id"`
	CreatedAt time.Time   `json:"created_at"`
	Config    config.Prep `json:"user_inputs"`
	Columns   []string    `json:"cols_used_for_training"`
}

// FeatureColumns returns the training columns without the target.
func (a *SchemaArtifact) FeatureColumns() []string {
	out := make([]string, 0, len(a.Columns))
	for _, c := range a.Columns {
		if c != a.Config.TargetAttribute {
			out = append(out, c)
		}
	}
	return out
}
