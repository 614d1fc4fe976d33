// Package transfer holds one transfer-window move and the admission rules
// applied before any matching happens.
package transfer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/transfermetrics/pipeline/internal/domain/normalize"
)

// Event is one transfer from the transfer-market source. Fee and
// MarketValue are euro amounts; NaN marks a missing numeric value, never
// zero, so the feature stage can tell "free" from "unknown".
type Event struct {
	Player         string
	NormalizedName string
	Age            float64
	Position       string
	Nationality    string
	Fee            float64
	MarketValue    float64
	PreviousClub   string
	League         string // destination league, canonical token
	SourceFile     string
	TransferYear   int
	SeasonBefore   string
	SeasonAfter    string
}

var yearRegex = regexp.MustCompile(`\d{4}`)

// YearFromSource extracts the transfer year from a source identifier like
// "bundesliga_2023.csv". Returns 0 when no 4-digit year is present.
func YearFromSource(source string) int {
	m := yearRegex.FindString(source)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}

// Normalize canonicalizes the comparison fields and derives the season
// labels on either side of the transfer year.
func (e *Event) Normalize() {
	e.NormalizedName = normalize.Name(e.Player)
	e.League = normalize.League(e.League)
	if e.TransferYear == 0 {
		e.TransferYear = YearFromSource(e.SourceFile)
	}
	if e.TransferYear > 0 {
		e.SeasonBefore, e.SeasonAfter = normalize.SeasonsAround(e.TransferYear)
	}
}

func (e Event) Validate() error {
	if e.Player == "" {
		return fmt.Errorf("transfer player name is required")
	}
	if e.League == "" {
		return fmt.Errorf("transfer destination league is required")
	}
	if e.TransferYear <= 0 {
		return fmt.Errorf("transfer year could not be derived from %q", e.SourceFile)
	}
	return nil
}

// AdmissionRules filter transfers before matching: a minimum fee and a
// set of eligible position fragments (matched case-insensitively against
// the raw position label).
type AdmissionRules struct {
	MinFee            float64
	PositionFragments []string
}

// DefaultAdmissionRules mirror the collection criteria of the transfer
// source: EUR 5M+ moves of attacking and midfield players.
func DefaultAdmissionRules() AdmissionRules {
	return AdmissionRules{
		MinFee:            5_000_000,
		PositionFragments: []string{"midfield", "attack", "forward", "winger", "striker"},
	}
}

// Admit reports whether the event passes the admission filters. Missing
// fees never pass the fee floor.
func (r AdmissionRules) Admit(e Event) bool {
	if math.IsNaN(e.Fee) || e.Fee < r.MinFee {
		return false
	}

	position := strings.ToLower(e.Position)
	for _, fragment := range r.PositionFragments {
		if strings.Contains(position, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}
