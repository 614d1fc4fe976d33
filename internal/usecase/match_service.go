package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/domain/similarity"
	"github.com/transfermetrics/pipeline/internal/domain/transfer"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// DefaultSimilarityThreshold is the canonical acceptance score for fuzzy
// name matches. Deployments have run anywhere between 78 and 85; the
// Levenshtein ratio scores abbreviated forms ("j. bellingham") lower than
// subsequence-based ratios do, so the low end of that band is canonical.
const DefaultSimilarityThreshold = 78

const defaultProgressEvery = 100

// MatchQuery identifies the record being looked for. Name, League and
// Season must already be normalized; league and season are matched
// exactly, only names fall back to fuzzy comparison.
type MatchQuery struct {
	Name   string
	League string
	Season string
}

// MatchResult is the outcome of one lookup. A miss is a value, not an
// error: players legitimately vanish from a league-season.
type MatchResult struct {
	Record *performance.Record
	Score  int
	Found  bool
}

// CandidatePool is an immutable league+season index over the performance
// records. Reads are safe from any number of goroutines.
type CandidatePool struct {
	byLeagueSeason map[string][]*performance.Record
	size           int
}

func poolKey(league, season string) string {
	return league + "|" + season
}

// NewCandidatePool indexes records by (league, season), preserving input
// order within each bucket so tie-breaks stay deterministic.
func NewCandidatePool(records []performance.Record) *CandidatePool {
	index := make(map[string][]*performance.Record)
	for i := range records {
		rec := &records[i]
		key := poolKey(rec.League, rec.Season)
		index[key] = append(index[key], rec)
	}
	return &CandidatePool{byLeagueSeason: index, size: len(records)}
}

func (p *CandidatePool) Size() int { return p.size }

func (p *CandidatePool) candidates(league, season string) []*performance.Record {
	return p.byLeagueSeason[poolKey(league, season)]
}

// MatchService finds performance records for transfer events and joins
// the two sides into matched transfers.
type MatchService struct {
	scorer        similarity.Scorer
	threshold     int
	workers       int
	progressEvery int
	logger        *logging.Logger
}

func NewMatchService(scorer similarity.Scorer, threshold, workers int, logger *logging.Logger) *MatchService {
	if scorer == nil {
		scorer = similarity.NewLevenshteinScorer()
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		scorer:        scorer,
		threshold:     threshold,
		workers:       workers,
		progressEvery: defaultProgressEvery,
		logger:        logger,
	}
}

// FindMatch runs the exact-then-fuzzy lookup. League and season are hard
// filters: when no candidate shares both, the match fails regardless of
// how similar a name elsewhere might be. Among fuzzy candidates the first
// maximum in pool order wins, so repeated runs pick the same record.
func (s *MatchService) FindMatch(pool *CandidatePool, query MatchQuery) MatchResult {
	candidates := pool.candidates(query.League, query.Season)
	if len(candidates) == 0 {
		return MatchResult{}
	}

	for _, candidate := range candidates {
		if candidate.NormalizedName == query.Name {
			return MatchResult{Record: candidate, Score: 100, Found: true}
		}
	}

	var best *performance.Record
	bestScore := 0
	for _, candidate := range candidates {
		score := s.scorer.Score(query.Name, candidate.NormalizedName)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}

	if best == nil || bestScore < s.threshold {
		return MatchResult{}
	}
	return MatchResult{Record: best, Score: bestScore, Found: true}
}

// JoinStats summarizes one matching run.
type JoinStats struct {
	Transfers     int                `json:"transfers"`
	Complete      int                `json:"complete"`
	BeforeOnly    int                `json:"before_only"`
	AfterOnly     int                `json:"after_only"`
	Unmatched     int                `json:"unmatched"`
	MatchRatePct  float64            `json:"match_rate_pct"`
	RateByLeague  map[string]float64 `json:"rate_by_league"`
	PoolSize      int                `json:"pool_size"`
	WorkerCount   int                `json:"worker_count"`
	ThresholdUsed int                `json:"threshold_used"`
}

// JoinResult carries the three disjoint partitions of a run. All rows
// appear in All exactly once, in input order.
type JoinResult struct {
	All       []matched.Transfer
	Complete  []matched.Transfer
	Unmatched []matched.Transfer
	Stats     JoinStats
}

// Join matches every transfer event against the pool twice, once per
// neighboring season, and assembles one matched transfer per event.
// Queries are independent reads of an immutable pool, so they fan out
// over a worker pool; results are reassembled by input index, which makes
// the output byte-identical across runs and worker counts.
func (s *MatchService) Join(ctx context.Context, events []transfer.Event, records []performance.Record) (JoinResult, error) {
	pool := NewCandidatePool(records)
	rows := make([]matched.Transfer, len(events))

	workerPool, err := ants.NewPool(s.workers)
	if err != nil {
		return JoinResult{}, fmt.Errorf("create matcher worker pool: %w", err)
	}
	defer workerPool.Release()

	var done atomic.Int64
	var workers sync.WaitGroup
	for i := range events {
		if err := ctx.Err(); err != nil {
			// In-flight workers still write into rows; let them drain
			// before the slice goes out of scope.
			workers.Wait()
			return JoinResult{}, err
		}

		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			event := events[i]
			rows[i] = s.matchOne(pool, event)

			if n := done.Add(1); s.progressEvery > 0 && n%int64(s.progressEvery) == 0 {
				s.logger.Info("matching progress", "processed", n, "total", len(events))
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return JoinResult{}, fmt.Errorf("submit match task: %w", err)
		}
	}
	workers.Wait()

	result := JoinResult{All: rows}
	result.Stats = JoinStats{
		Transfers:     len(rows),
		PoolSize:      pool.Size(),
		WorkerCount:   s.workers,
		ThresholdUsed: s.threshold,
		RateByLeague:  make(map[string]float64),
	}

	completeByLeague := make(map[string]int)
	totalByLeague := make(map[string]int)
	for _, row := range rows {
		totalByLeague[row.Event.League]++
		switch {
		case row.HasBoth():
			result.Complete = append(result.Complete, row)
			result.Stats.Complete++
			completeByLeague[row.Event.League]++
		case row.HasBefore():
			result.Stats.BeforeOnly++
		case row.HasAfter():
			result.Stats.AfterOnly++
		default:
			result.Unmatched = append(result.Unmatched, row)
			result.Stats.Unmatched++
		}
	}

	if len(rows) > 0 {
		result.Stats.MatchRatePct = float64(result.Stats.Complete) / float64(len(rows)) * 100
	}
	leagues := make([]string, 0, len(totalByLeague))
	for league := range totalByLeague {
		leagues = append(leagues, league)
	}
	sort.Strings(leagues)
	for _, league := range leagues {
		result.Stats.RateByLeague[league] = float64(completeByLeague[league]) / float64(totalByLeague[league]) * 100
	}

	s.logger.Info("matching complete",
		"transfers", result.Stats.Transfers,
		"complete", result.Stats.Complete,
		"before_only", result.Stats.BeforeOnly,
		"after_only", result.Stats.AfterOnly,
		"unmatched", result.Stats.Unmatched,
		"match_rate_pct", fmt.Sprintf("%.1f", result.Stats.MatchRatePct),
	)

	return result, nil
}

func (s *MatchService) matchOne(pool *CandidatePool, event transfer.Event) matched.Transfer {
	row := matched.Transfer{Event: event}

	before := s.FindMatch(pool, MatchQuery{
		Name:   event.NormalizedName,
		League: event.League,
		Season: event.SeasonBefore,
	})
	if before.Found {
		row.Before = before.Record
		row.BeforeScore = before.Score
	}

	after := s.FindMatch(pool, MatchQuery{
		Name:   event.NormalizedName,
		League: event.League,
		Season: event.SeasonAfter,
	})
	if after.Found {
		row.After = after.Record
		row.AfterScore = after.Score
	}

	return row
}
