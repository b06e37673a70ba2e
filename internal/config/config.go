// Package config defines the pipeline configuration record and the
// application settings around it.
//
// Prep is the immutable parameter set of one preparation run. It is passed by
// value into the pipeline and persisted with the training schema so that
// scoring runs can be checked against it.
package config

import (
	"runtime"
	"time"
)

// DateLayout is the layout of every date string in the configuration.
const DateLayout = "2006-01-02"

// Mode selects the preparation regime.
type Mode string

const (
	// ModeTrain builds a labeled training table with randomized cutoffs.
	ModeTrain Mode = "train"
	// ModeScore builds an unlabeled table at a fixed effective date.
	ModeScore Mode = "score"
)

// Prep holds the parameters of a preparation run.
type Prep struct {
	Mode Mode `koanf:"mode" json:"-" validate:"oneof=train score"`

	// Column selection.
	ColumnsRequired   []string `koanf:"columns_required" json:"columns_required" validate:"min=1,dive,required"`
	FeatureAttributes []string `koanf:"feature_attributes" json:"feature_attributes" validate:"dive,required"`
	DeriveColumns     []string `koanf:"derive_column_list" json:"derive_column_list" validate:"dive,required"`
	SumColumns        []string `koanf:"sum_list" json:"sum_list" validate:"dive,required"`

	// Column roles.
	GranularityKey       string `koanf:"granularity_key" json:"granularity_key" validate:"required"`
	TargetAttribute      string `koanf:"target_attribute" json:"target_attribute" validate:"required"`
	StatusAttribute      string `koanf:"status_attribute" json:"status_attribute" validate:"required"`
	FundsAttribute       string `koanf:"funds_attribute" json:"funds_attribute" validate:"required"`
	JoinDateAttribute    string `koanf:"date_customer_joined" json:"date_customer_joined" validate:"required"`
	PeriodEndAttribute   string `koanf:"customer_end_date" json:"customer_end_date" validate:"required"`
	PeriodStartAttribute string `koanf:"customer_start_date" json:"customer_start_date" validate:"required"`
	TenureAttribute      string `koanf:"period_attribute" json:"period_attribute" validate:"required"`

	// Labeling.
	AttritionStatus    string  `koanf:"status_flag_attrition" json:"status_flag_attrition"`
	FundsDropThreshold float64 `koanf:"funds_drop_threshold" json:"AUM_reduction_threshold" validate:"gte=0,lte=1"`

	// Windows, in months.
	ForecastHorizon   int `koanf:"forecast_horizon" json:"forecast_horizon" validate:"gte=1"`
	ObservationWindow int `koanf:"observation_window" json:"observation_window" validate:"gte=1"`

	// Cleaning.
	CategoricalThreshold int     `koanf:"cat_threshold" json:"cat_threshold" validate:"gte=1"`
	MaxNullFraction      float64 `koanf:"max_null_fraction" json:"max_null_fraction" validate:"gte=0,lte=1"`

	// Date ranges: training uses [earliest, latest], scoring uses the effective date.
	EffectiveDateEarliest string `koanf:"effective_date_earliest" json:"effective_date_earliest,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EffectiveDateLatest   string `koanf:"effective_date_latest" json:"effective_date_latest,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EffectiveDate         string `koanf:"effective_date" json:"effective_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// Seed drives the cutoff sampler. Equal seeds give equal training tables.
	Seed uint64 `koanf:"seed" json:"seed"`

	// Workers bounds the window derivation pool.
	Workers int `koanf:"workers" json:"-" validate:"gte=1"`

	// StrictSchema turns score/train configuration differences into errors.
	StrictSchema bool `koanf:"strict_schema" json:"-"`
}

// Source selects where raw snapshots are read from.
type Source struct {
	// Kind is one of csv, xlsx, postgres, clickhouse.
	Kind  string `koanf:"kind" validate:"oneof=csv xlsx postgres clickhouse"`
	Path  string `koanf:"path" validate:"required_if=Kind csv,required_if=Kind xlsx"`
	Sheet string `koanf:"sheet"`
	DSN   string `koanf:"dsn" validate:"required_if=Kind postgres,required_if=Kind clickhouse"`
	Table string `koanf:"table" validate:"required_if=Kind postgres,required_if=Kind clickhouse"`
}

// Output selects where prepared data and the training schema are written.
type Output struct {
	DatasetPath string `koanf:"dataset_path" validate:"required"`
	// SchemaStore is file or postgres.
	SchemaStore string `koanf:"schema_store" validate:"oneof=file postgres"`
	SchemaPath  string `koanf:"schema_path" validate:"required_if=SchemaStore file"`
	SchemaDSN   string `koanf:"schema_dsn" validate:"required_if=SchemaStore postgres"`
	SchemaName  string `koanf:"schema_name" validate:"required"`
	MetricsPath string `koanf:"metrics_path"`
}

// Config is the full process configuration.
type Config struct {
	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	Source Source `koanf:"source"`
	Output Output `koanf:"output"`
	Prep   Prep   `koanf:"prep"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Source: Source{
			Kind: "csv",
			Path: "data/customer_snapshots.csv",
		},
		Output: Output{
			DatasetPath: "data/prepared.csv",
			SchemaStore: "file",
			SchemaPath:  "data/training_user_inputs_and_prepped_column_names.json",
			SchemaName:  "attrition",
		},
		Prep: DefaultPrep(),
	}
}

// DefaultPrep returns the default preparation parameters.
func DefaultPrep() Prep {
	return Prep{
		Mode: ModeTrain,
		ColumnsRequired: []string{
			"CUSTOMER_CUSTOMER_ID", "CUSTOMER_SUMMARY_END_DATE", "CUSTOMER_SUMMARY_START_DATE",
			"CUSTOMER_STATUS", "CUSTOMER_SUMMARY_FUNDS_UNDER_MANAGEMENT", "CUSTOMER_EFFECTIVE_DATE",
			"CUSTOMER_RELATIONSHIP_START_DATE",
		},
		FeatureAttributes: []string{
			"CUSTOMER_AGE_RANGE", "CUSTOMER_GENDER", "CUSTOMER_EDUCATION_LEVEL",
			"CUSTOMER_URBAN_CODE", "CUSTOMER_MARKET_GROUP", "CUSTOMER_EMPLOYMENT_STATUS",
			"CUSTOMER_MARITAL_STATUS", "CUSTOMER_SUMMARY_ASSETS",
			"CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_DEPOSITS", "CUSTOMER_NUMBER_OF_DEPENDENT_ADULTS",
			"CUSTOMER_NUMBER_OF_DEPENDENT_CHILDREN", "CUSTOMER_ANNUAL_INCOME",
			"CUSTOMER_SUMMARY_NUMBER_OF_ACCOUNTS", "CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_ALL_FEES",
			"CUSTOMER_SUMMARY_FUNDS_UNDER_MANAGEMENT", "CUSTOMER_SUMMARY_AVERAGE_SENTIMENT_SCORE",
			"CUSTOMER_INTERNET_BANKING_INDICATOR", "CUSTOMER_FAMILY_SIZE",
			"NUM_ACCOUNTS_WITH_RISK_TOLERANCE_HIGH", "NUM_ACCOUNTS_WITH_RISK_TOLERANCE_LOW",
			"NUM_ACCOUNTS_WITH_RISK_TOLERANCE_MODERATE", "NUM_ACCOUNTS_WITH_RISK_TOLERANCE_VERY_LOW",
			"NUM_ACCOUNTS_WITH_INVESTMENT_OBJECTIVE_GROWTH", "NUM_ACCOUNTS_WITH_INVESTMENT_OBJECTIVE_INCOME",
			"NUM_ACCOUNTS_WITH_INVESTMENT_OBJECTIVE_PLANNING", "NUM_ACCOUNTS_WITH_INVESTMENT_OBJECTIVE_SECURE_GROWTH",
			"NUM_ACCOUNTS_WITH_INVESTMENT_OBJECTIVE_SECURITY",
		},
		DeriveColumns: []string{
			"CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_DEPOSITS", "CUSTOMER_SUMMARY_FINANCIAL_ASSETS",
			"CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_MARKET_CHANGE", "CUSTOMER_SUMMARY_NUMBER_OF_TRANSACTIONS",
			"CUSTOMER_SUMMARY_FUNDS_UNDER_MANAGEMENT", "CUSTOMER_SUMMARY_NON_FINANCIAL_ASSETS",
			"CUSTOMER_SUMMARY_NUMBER_OF_MOBILE_LOGINS", "CUSTOMER_SUMMARY_NUMBER_OF_LOGINS",
		},
		SumColumns: []string{
			"CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_DEPOSITS",
			"CUSTOMER_SUMMARY_TOTAL_AMOUNT_OF_MARKET_CHANGE",
			"CUSTOMER_SUMMARY_NUMBER_OF_TRANSACTIONS",
		},
		GranularityKey:        "CUSTOMER_CUSTOMER_ID",
		TargetAttribute:       "TARGET",
		StatusAttribute:       "CUSTOMER_STATUS",
		FundsAttribute:        "CUSTOMER_SUMMARY_FUNDS_UNDER_MANAGEMENT",
		JoinDateAttribute:     "CUSTOMER_RELATIONSHIP_START_DATE",
		PeriodEndAttribute:    "CUSTOMER_SUMMARY_END_DATE",
		PeriodStartAttribute:  "CUSTOMER_SUMMARY_START_DATE",
		TenureAttribute:       "CUSTOMER_TENURE",
		AttritionStatus:       "Inactive",
		FundsDropThreshold:    0.75,
		ForecastHorizon:       6,
		ObservationWindow:     6,
		CategoricalThreshold:  10,
		MaxNullFraction:       0.1,
		EffectiveDateEarliest: "2016-01-01",
		EffectiveDateLatest:   "2018-09-30",
		EffectiveDate:         "2018-09-30",
		Workers:               runtime.NumCPU(),
	}
}

// Clone returns a deep copy of p.
func (p Prep) Clone() Prep {
	p.ColumnsRequired = cloneStrings(p.ColumnsRequired)
	p.FeatureAttributes = cloneStrings(p.FeatureAttributes)
	p.DeriveColumns = cloneStrings(p.DeriveColumns)
	p.SumColumns = cloneStrings(p.SumColumns)
	return p
}

// Earliest returns the parsed training lower bound.
func (p Prep) Earliest() (time.Time, error) {
	return time.Parse(DateLayout, p.EffectiveDateEarliest)
}

// Latest returns the parsed training upper bound.
func (p Prep) Latest() (time.Time, error) {
	return time.Parse(DateLayout, p.EffectiveDateLatest)
}

// Effective returns the parsed scoring date.
func (p Prep) Effective() (time.Time, error) {
	return time.Parse(DateLayout, p.EffectiveDate)
}

// Columns returns the de-duplicated union of required and feature columns,
// keeping first-seen order.
func (p Prep) Columns() []string {
	seen := make(map[string]struct{}, len(p.ColumnsRequired)+len(p.FeatureAttributes))
	out := make([]string, 0, len(p.ColumnsRequired)+len(p.FeatureAttributes))
	for _, list := range [][]string{p.ColumnsRequired, p.FeatureAttributes} {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
