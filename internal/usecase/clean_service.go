package usecase

import (
	"context"

	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// CleanService turns raw performance rows into the deduplicated,
// per-90-enriched candidate pool the matcher searches. It never mutates
// its input; every call returns a fresh slice.
type CleanService struct {
	logger *logging.Logger
}

type CleanStats struct {
	RecordsIn      int `json:"records_in"`
	RecordsOut     int `json:"records_out"`
	DroppedNoName  int `json:"dropped_no_name"`
	DroppedInvalid int `json:"dropped_invalid"`
	Duplicates     int `json:"duplicates"`
}

func NewCleanService(logger *logging.Logger) *CleanService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CleanService{logger: logger}
}

// Clean normalizes, validates, deduplicates and derives per-90 rates.
// Duplicate policy is keep-first on (player, squad, season, league),
// matching the source's stable file order.
func (s *CleanService) Clean(ctx context.Context, raw []performance.Record) ([]performance.Record, CleanStats, error) {
	stats := CleanStats{RecordsIn: len(raw)}

	seen := make(map[string]struct{}, len(raw))
	out := make([]performance.Record, 0, len(raw))

	for _, rec := range raw {
		if err := ctx.Err(); err != nil {
			return nil, CleanStats{}, err
		}

		if rec.Player == "" {
			stats.DroppedNoName++
			continue
		}

		rec.Normalize()
		if err := rec.Validate(); err != nil {
			stats.DroppedInvalid++
			s.logger.Debug("dropping invalid performance record", "player", rec.Player, "reason", err)
			continue
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		rec.DerivePer90()
		out = append(out, rec)
	}

	stats.RecordsOut = len(out)
	s.logger.Info("performance records cleaned",
		"in", stats.RecordsIn,
		"out", stats.RecordsOut,
		"dropped_no_name", stats.DroppedNoName,
		"dropped_invalid", stats.DroppedInvalid,
		"duplicates", stats.Duplicates,
	)

	return out, stats, nil
}
