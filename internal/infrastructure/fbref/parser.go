package fbref

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/transfermetrics/pipeline/internal/domain/performance"
)

// ErrTableNotFound is returned when a page carries no standard-stats
// table, commented or not.
var ErrTableNotFound = crerr.New("stats_standard table not found")

// ParseStandardTable extracts player rows from a standard-stats page.
// fbref ships most tables inside HTML comments; when the live document
// has no table the comment markers are stripped and the page reparsed.
func ParseStandardTable(page []byte, league, season string) ([]performance.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, crerr.Wrap(err, "parse html")
	}

	table := doc.Find("table#stats_standard")
	if table.Length() == 0 {
		uncommented := bytes.ReplaceAll(page, []byte("<!--"), nil)
		uncommented = bytes.ReplaceAll(uncommented, []byte("-->"), nil)
		doc, err = goquery.NewDocumentFromReader(bytes.NewReader(uncommented))
		if err != nil {
			return nil, crerr.Wrap(err, "parse uncommented html")
		}
		table = doc.Find("table#stats_standard")
	}
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	var records []performance.Record
	table.First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		// Repeated header rows inside tbody carry the thead class.
		if row.HasClass("thead") {
			return
		}

		cells := map[string]string{}
		row.Find("th[data-stat], td[data-stat]").Each(func(_ int, cell *goquery.Selection) {
			name, _ := cell.Attr("data-stat")
			cells[name] = strings.TrimSpace(cell.Text())
		})

		player := cells["player"]
		if player == "" {
			return
		}

		records = append(records, performance.Record{
			Player:   player,
			Nation:   nationCode(cells["nationality"]),
			Position: cells["position"],
			Squad:    cells["team"],
			Age:      parseAge(cells["age"]),
			League:   league,
			Season:   season,

			Matches:               cellFloat(cells, "games"),
			Starts:                cellFloat(cells, "games_starts"),
			Minutes:               cellFloat(cells, "minutes"),
			Nineties:              cellFloat(cells, "minutes_90s"),
			Goals:                 cellFloat(cells, "goals"),
			Assists:               cellFloat(cells, "assists"),
			GoalsPlusAssists:      cellFloat(cells, "goals_assists"),
			NonPenaltyGoals:       cellFloat(cells, "goals_pens"),
			Penalties:             cellFloat(cells, "pens_made"),
			PenaltyAttempts:       cellFloat(cells, "pens_att"),
			YellowCards:           cellFloat(cells, "cards_yellow"),
			RedCards:              cellFloat(cells, "cards_red"),
			XG:                    cellFloat(cells, "xg"),
			NonPenaltyXG:          cellFloat(cells, "npxg"),
			XAG:                   cellFloat(cells, "xg_assist"),
			NonPenaltyXGXAG:       cellFloat(cells, "npxg_xg_assist"),
			ProgressiveCarries:    cellFloat(cells, "progressive_carries"),
			ProgressivePasses:     cellFloat(cells, "progressive_passes"),
			ProgressiveReceptions: cellFloat(cells, "progressive_receptions"),
		})
	})

	return records, nil
}

// cellFloat reads a numeric cell; empty or unreadable cells count as 0,
// thousands separators are stripped.
func cellFloat(cells map[string]string, name string) float64 {
	raw := strings.ReplaceAll(cells[name], ",", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseAge reads the leading years component of an "age-days" cell like
// "20-113".
func parseAge(raw string) int {
	years, _, _ := strings.Cut(raw, "-")
	age, err := strconv.Atoi(strings.TrimSpace(years))
	if err != nil {
		return 0
	}
	return age
}

// nationCode keeps the uppercase code of a "eng ENG" nationality cell.
func nationCode(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
