package postgres

import (
	"database/sql"
	"math"
	"time"
)

// matchedTransferInsertModel is one warehouse row of a matching run. The
// headline stats are denormalized per side; the full stat set stays in
// the CSV artifacts.
type matchedTransferInsertModel struct {
	RunID          string          `db:"run_id"`
	Player         string          `db:"player"`
	NormalizedName string          `db:"normalized_name"`
	Age            sql.NullFloat64 `db:"age"`
	Position       string          `db:"position"`
	Fee            sql.NullFloat64 `db:"fee"`
	MarketValue    sql.NullFloat64 `db:"market_value"`
	PreviousClub   string          `db:"previous_club"`
	League         string          `db:"league"`
	SourceFile     string          `db:"source_file"`
	TransferYear   int             `db:"transfer_year"`
	SeasonBefore   string          `db:"season_before"`
	SeasonAfter    string          `db:"season_after"`

	HasBefore   bool `db:"has_before"`
	HasAfter    bool `db:"has_after"`
	BeforeScore int  `db:"before_score"`
	AfterScore  int  `db:"after_score"`

	BeforeSquad    sql.NullString  `db:"before_squad"`
	BeforeNineties sql.NullFloat64 `db:"before_nineties"`
	BeforeGoals    sql.NullFloat64 `db:"before_gls"`
	BeforeAssists  sql.NullFloat64 `db:"before_ast"`
	BeforeGAPer90  sql.NullFloat64 `db:"before_ga_per90"`

	AfterSquad    sql.NullString  `db:"after_squad"`
	AfterNineties sql.NullFloat64 `db:"after_nineties"`
	AfterGoals    sql.NullFloat64 `db:"after_gls"`
	AfterAssists  sql.NullFloat64 `db:"after_ast"`
	AfterGAPer90  sql.NullFloat64 `db:"after_ga_per90"`
}

// pipelineRunInsertModel records one run's report for auditability.
type pipelineRunInsertModel struct {
	RunID      string    `db:"run_id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Report     []byte    `db:"report"`
}

// nullableFloat maps the NaN missing marker to SQL NULL.
func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
