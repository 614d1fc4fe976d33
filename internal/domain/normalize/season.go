package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	seasonSpanRegex = regexp.MustCompile(`^(\d{4})\s*[-/]\s*(\d{2,4})$`)
	seasonYearRegex = regexp.MustCompile(`^\d{4}$`)
)

// SeasonLabel renders a start year as the canonical "YYYY-YYYY" season
// string used across both sources, e.g. 2023 -> "2023-2024".
func SeasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// Season canonicalizes a free-text season label to "YYYY-YYYY". Accepted
// inputs: a bare start year ("2023"), a span with a 4- or 2-digit end year
// ("2023-2024", "2023/24"). Anything else passes through trimmed, keeping
// the mismatch visible downstream.
func Season(raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return ""
	}

	if seasonYearRegex.MatchString(label) {
		year, _ := strconv.Atoi(label)
		return SeasonLabel(year)
	}

	if m := seasonSpanRegex.FindStringSubmatch(label); m != nil {
		start, _ := strconv.Atoi(m[1])
		return SeasonLabel(start)
	}

	return label
}

// SeasonsAround derives the canonical season labels on either side of a
// transfer year. A transfer in year Y closes season (Y-1)-Y and opens
// season Y-(Y+1); the year-as-first-season variant some sources use is
// deliberately not supported here.
func SeasonsAround(transferYear int) (before, after string) {
	return SeasonLabel(transferYear - 1), SeasonLabel(transferYear)
}
