package pipeline

import (
	"fmt"
	"slices"

	"attrition-prep/internal/config"
)

// Mismatch is one parity-relevant setting that differs between the training
// artifact and the scoring configuration.
type Mismatch struct {
	Field    string
	Training string
	Scoring  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: training=%s scoring=%s", m.Field, m.Training, m.Scoring)
}

// CompareConfig lists the settings that change the meaning of prepared
// columns. Date ranges, seeds and worker counts are not compared.
func CompareConfig(training, scoring config.Prep) []Mismatch {
	var out []Mismatch
	check := func(field string, a, b any) {
		if fmt.Sprint(a) != fmt.Sprint(b) {
			out = append(out, Mismatch{Field: field, Training: fmt.Sprint(a), Scoring: fmt.Sprint(b)})
		}
	}
	checkList := func(field string, a, b []string) {
		if !slices.Equal(a, b) {
			out = append(out, Mismatch{Field: field, Training: fmt.Sprint(a), Scoring: fmt.Sprint(b)})
		}
	}

	check("observation_window", training.ObservationWindow, scoring.ObservationWindow)
	check("forecast_horizon", training.ForecastHorizon, scoring.ForecastHorizon)
	check("funds_drop_threshold", training.FundsDropThreshold, scoring.FundsDropThreshold)
	check("status_flag_attrition", training.AttritionStatus, scoring.AttritionStatus)
	checkList("derive_column_list", training.DeriveColumns, scoring.DeriveColumns)
	checkList("sum_list", training.SumColumns, scoring.SumColumns)
	check("cat_threshold", training.CategoricalThreshold, scoring.CategoricalThreshold)
	check("granularity_key", training.GranularityKey, scoring.GranularityKey)
	check("target_attribute", training.TargetAttribute, scoring.TargetAttribute)
	return out
}
