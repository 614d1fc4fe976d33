package usecase

import (
	"context"

	"github.com/transfermetrics/pipeline/internal/domain/transfer"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// TransferService prepares raw transfer rows for matching: it derives the
// transfer year and season labels, then applies the admission filters.
type TransferService struct {
	rules  transfer.AdmissionRules
	logger *logging.Logger
}

type TransferStats struct {
	TransfersIn    int `json:"transfers_in"`
	TransfersOut   int `json:"transfers_out"`
	DroppedNoYear  int `json:"dropped_no_year"`
	DroppedInvalid int `json:"dropped_invalid"`
	Filtered       int `json:"filtered"`
}

func NewTransferService(rules transfer.AdmissionRules, logger *logging.Logger) *TransferService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TransferService{rules: rules, logger: logger}
}

// Prepare returns the admitted transfer events, enriched with derived
// season labels, in input order. Events failing the admission filters are
// counted, not errored: exclusion is the expected path for most rows.
func (s *TransferService) Prepare(ctx context.Context, raw []transfer.Event) ([]transfer.Event, TransferStats, error) {
	stats := TransferStats{TransfersIn: len(raw)}

	out := make([]transfer.Event, 0, len(raw))
	for _, event := range raw {
		if err := ctx.Err(); err != nil {
			return nil, TransferStats{}, err
		}

		event.Normalize()
		if event.TransferYear <= 0 {
			stats.DroppedNoYear++
			continue
		}
		if err := event.Validate(); err != nil {
			stats.DroppedInvalid++
			s.logger.Debug("dropping invalid transfer", "player", event.Player, "reason", err)
			continue
		}
		if !s.rules.Admit(event) {
			stats.Filtered++
			continue
		}

		out = append(out, event)
	}

	stats.TransfersOut = len(out)
	s.logger.Info("transfers prepared",
		"in", stats.TransfersIn,
		"out", stats.TransfersOut,
		"dropped_no_year", stats.DroppedNoYear,
		"dropped_invalid", stats.DroppedInvalid,
		"filtered", stats.Filtered,
	)

	return out, stats, nil
}
