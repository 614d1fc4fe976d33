// Package performance holds one player-season-league statistics record,
// the read-only candidate unit the matcher searches over.
package performance

import (
	"fmt"

	"github.com/transfermetrics/pipeline/internal/domain/normalize"
)

// Record is one player-season-league tuple from the performance source.
// Records are produced once by the cleaning stage and never mutated.
type Record struct {
	Player         string
	NormalizedName string
	Nation         string
	Position       string
	Squad          string
	Age            int
	League         string
	Season         string

	Matches               float64
	Starts                float64
	Minutes               float64
	Nineties              float64
	Goals                 float64
	Assists               float64
	GoalsPlusAssists      float64
	NonPenaltyGoals       float64
	Penalties             float64
	PenaltyAttempts       float64
	YellowCards           float64
	RedCards              float64
	XG                    float64
	NonPenaltyXG          float64
	XAG                   float64
	NonPenaltyXGXAG       float64
	ProgressiveCarries    float64
	ProgressivePasses     float64
	ProgressiveReceptions float64

	GoalsPer90   float64
	AssistsPer90 float64
	GAPer90      float64
}

// Stat is a named numeric column. StatColumns returns them in a fixed
// order so every consumer iterates the schema identically.
type Stat struct {
	Name  string
	Value float64
}

// Normalize fills the derived comparison fields from the raw ones.
func (r *Record) Normalize() {
	r.NormalizedName = normalize.Name(r.Player)
	r.League = normalize.League(r.League)
	r.Season = normalize.Season(r.Season)
}

// DerivePer90 computes the per-90 rates. A season with zero nineties
// played yields 0 for every rate, never a division by zero.
func (r *Record) DerivePer90() {
	if r.Nineties <= 0 {
		r.GoalsPer90 = 0
		r.AssistsPer90 = 0
		r.GAPer90 = 0
		return
	}
	r.GoalsPer90 = r.Goals / r.Nineties
	r.AssistsPer90 = r.Assists / r.Nineties
	r.GAPer90 = r.GoalsPlusAssists / r.Nineties
}

// Key identifies a record for deduplication: same player at the same club
// in the same league season is one row.
func (r Record) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.NormalizedName, r.Squad, r.Season, r.League)
}

// StatColumns returns the numeric stat columns in schema order. The
// feature assembler and the CSV stores both iterate this, which keeps
// column order deterministic across runs.
func (r Record) StatColumns() []Stat {
	return []Stat{
		{"mp", r.Matches},
		{"starts", r.Starts},
		{"min", r.Minutes},
		{"nineties", r.Nineties},
		{"gls", r.Goals},
		{"ast", r.Assists},
		{"g_plus_a", r.GoalsPlusAssists},
		{"g_minus_pk", r.NonPenaltyGoals},
		{"pk", r.Penalties},
		{"pkatt", r.PenaltyAttempts},
		{"crdy", r.YellowCards},
		{"crdr", r.RedCards},
		{"xg", r.XG},
		{"npxg", r.NonPenaltyXG},
		{"xag", r.XAG},
		{"npxg_xag", r.NonPenaltyXGXAG},
		{"prgc", r.ProgressiveCarries},
		{"prgp", r.ProgressivePasses},
		{"prgr", r.ProgressiveReceptions},
		{"gls_per90", r.GoalsPer90},
		{"ast_per90", r.AssistsPer90},
		{"ga_per90", r.GAPer90},
	}
}

// StatNames returns the names from StatColumns in the same order.
func StatNames() []string {
	names := make([]string, 0, 22)
	for _, stat := range (Record{}).StatColumns() {
		names = append(names, stat.Name)
	}
	return names
}

func (r Record) Validate() error {
	if r.Player == "" {
		return fmt.Errorf("performance record player name is required")
	}
	if r.League == "" {
		return fmt.Errorf("performance record league is required")
	}
	if r.Season == "" {
		return fmt.Errorf("performance record season is required")
	}
	if r.Minutes < 0 || r.Nineties < 0 {
		return fmt.Errorf("performance record playing time cannot be negative")
	}
	return nil
}
