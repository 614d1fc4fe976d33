package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/domain/transfer"
)

func record(player, league, season string) performance.Record {
	rec := performance.Record{
		Player: player,
		League: league,
		Season: season,
		Goals:  5, Assists: 3, GoalsPlusAssists: 8, Nineties: 20,
	}
	rec.Normalize()
	rec.DerivePer90()
	return rec
}

func event(player, league string, year int) transfer.Event {
	e := transfer.Event{
		Player:       player,
		League:       league,
		TransferYear: year,
		Position:     "Forward",
		Fee:          20_000_000,
		MarketValue:  30_000_000,
		Age:          24,
	}
	e.Normalize()
	return e
}

func TestFindMatchExact(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	pool := NewCandidatePool([]performance.Record{
		record("Jude Bellingham", "La Liga", "2023"),
		record("Vinicius Junior", "La Liga", "2023"),
	})

	got := service.FindMatch(pool, MatchQuery{Name: "jude bellingham", League: "La-Liga", Season: "2023-2024"})
	if !got.Found {
		t.Fatal("exact match not found")
	}
	if got.Score != 100 {
		t.Fatalf("exact match score: got %d want 100", got.Score)
	}
	if got.Record.Player != "Jude Bellingham" {
		t.Fatalf("wrong record: %q", got.Record.Player)
	}
}

func TestFindMatchFuzzyAbbreviatedName(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	pool := NewCandidatePool([]performance.Record{
		record("Jude Bellingham", "La Liga", "2023"),
		record("Erling Haaland", "La Liga", "2023"),
	})

	got := service.FindMatch(pool, MatchQuery{Name: "j. bellingham", League: "La-Liga", Season: "2023-2024"})
	if !got.Found {
		t.Fatal("fuzzy match above threshold not found")
	}
	if got.Record.Player != "Jude Bellingham" {
		t.Fatalf("wrong fuzzy candidate: %q", got.Record.Player)
	}
	if got.Score >= 100 || got.Score < DefaultSimilarityThreshold {
		t.Fatalf("fuzzy score out of expected band: %d", got.Score)
	}
}

func TestFindMatchNeverCrossesLeagueOrSeason(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	pool := NewCandidatePool([]performance.Record{
		record("Jude Bellingham", "Premier League", "2023"), // same name, wrong league
		record("Jude Bellingham", "La Liga", "2022"),        // same name, wrong season
	})

	got := service.FindMatch(pool, MatchQuery{Name: "jude bellingham", League: "La-Liga", Season: "2023-2024"})
	if got.Found {
		t.Fatalf("match crossed league/season boundary: %+v", got.Record)
	}
}

func TestFindMatchEmptySubsetIsMissNotError(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	pool := NewCandidatePool(nil)

	got := service.FindMatch(pool, MatchQuery{Name: "anyone", League: "La-Liga", Season: "2023-2024"})
	if got.Found || got.Record != nil || got.Score != 0 {
		t.Fatalf("empty pool must yield the zero MatchResult, got %+v", got)
	}
}

func TestFindMatchBelowThreshold(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	pool := NewCandidatePool([]performance.Record{
		record("Erling Haaland", "La Liga", "2023"),
	})

	got := service.FindMatch(pool, MatchQuery{Name: "jude bellingham", League: "La-Liga", Season: "2023-2024"})
	if got.Found {
		t.Fatalf("dissimilar name accepted with score %d", got.Score)
	}
}

func TestFindMatchTieReturnsAWinner(t *testing.T) {
	t.Parallel()

	service := NewMatchService(nil, 0, 1, nil)
	// Two candidates equidistant from the query; either may win, but one
	// must, and repeatedly the same one.
	pool := NewCandidatePool([]performance.Record{
		record("abxdefghij", "La Liga", "2023"),
		record("abydefghij", "La Liga", "2023"),
	})

	query := MatchQuery{Name: "abcdefghij", League: "La-Liga", Season: "2023-2024"}
	first := service.FindMatch(pool, query)
	if !first.Found {
		t.Fatal("tie produced no winner")
	}
	for i := 0; i < 5; i++ {
		if again := service.FindMatch(pool, query); again.Record != first.Record {
			t.Fatal("tie-break is not deterministic")
		}
	}
}

func TestJoinPartitionsAreDisjointAndComplete(t *testing.T) {
	t.Parallel()

	records := []performance.Record{
		record("Jude Bellingham", "La Liga", "2022"),
		record("Jude Bellingham", "La Liga", "2023"),
		record("Victor Osimhen", "Serie A", "2023"), // after only
	}
	events := []transfer.Event{
		event("Jude Bellingham", "La Liga", 2023), // complete
		event("Victor Osimhen", "Serie A", 2023),  // partial
		event("Nobody Matches", "Ligue 1", 2023),  // unmatched
	}

	service := NewMatchService(nil, 0, 4, nil)
	result, err := service.Join(context.Background(), events, records)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}

	if len(result.All) != len(events) {
		t.Fatalf("all-table row count %d != input count %d", len(result.All), len(events))
	}
	if result.Stats.Complete != 1 || result.Stats.AfterOnly != 1 || result.Stats.Unmatched != 1 {
		t.Fatalf("unexpected partition stats: %+v", result.Stats)
	}

	for _, row := range result.All {
		if row.HasBoth() && !containsEvent(result.Complete, row.Event.Player) {
			t.Fatalf("complete row %q missing from complete partition", row.Event.Player)
		}
		if row.Unmatched() && !containsEvent(result.Unmatched, row.Event.Player) {
			t.Fatalf("unmatched row %q missing from unmatched partition", row.Event.Player)
		}
	}

	complete := result.Complete[0]
	if complete.Before.Season != "2022-2023" || complete.After.Season != "2023-2024" {
		t.Fatalf("wrong seasons joined: before=%q after=%q", complete.Before.Season, complete.After.Season)
	}
}

func TestJoinOrderStableAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	records := []performance.Record{
		record("Jude Bellingham", "La Liga", "2022"),
		record("Jude Bellingham", "La Liga", "2023"),
		record("Victor Osimhen", "Serie A", "2022"),
		record("Victor Osimhen", "Serie A", "2023"),
	}
	events := []transfer.Event{
		event("Victor Osimhen", "Serie A", 2023),
		event("Jude Bellingham", "La Liga", 2023),
		event("Nobody", "Premier League", 2023),
	}

	sequential := NewMatchService(nil, 0, 1, nil)
	parallel := NewMatchService(nil, 0, 8, nil)

	first, err := sequential.Join(context.Background(), events, records)
	if err != nil {
		t.Fatalf("sequential join: %v", err)
	}
	second, err := parallel.Join(context.Background(), events, records)
	if err != nil {
		t.Fatalf("parallel join: %v", err)
	}

	if len(first.All) != len(second.All) {
		t.Fatalf("row counts differ: %d vs %d", len(first.All), len(second.All))
	}
	for i := range first.All {
		if first.All[i].Event.Player != second.All[i].Event.Player {
			t.Fatalf("row order differs at %d: %q vs %q", i, first.All[i].Event.Player, second.All[i].Event.Player)
		}
		if !reflect.DeepEqual(first.All[i].Before, second.All[i].Before) ||
			!reflect.DeepEqual(first.All[i].After, second.All[i].After) {
			t.Fatalf("matched records differ at %d", i)
		}
	}
}

// stallScorer blocks every comparison until released, so a test can hold
// workers in flight while the submit loop is interrupted.
type stallScorer struct {
	started  atomic.Int64
	finished atomic.Int64
	release  chan struct{}
}

func (s *stallScorer) Score(a, b string) int {
	s.started.Add(1)
	<-s.release
	s.finished.Add(1)
	return 0
}

func TestJoinDrainsWorkersOnCancel(t *testing.T) {
	t.Parallel()

	scorer := &stallScorer{release: make(chan struct{})}
	service := NewMatchService(scorer, 50, 1, nil)

	records := []performance.Record{
		record("Somebody Else", "La Liga", "2022"),
		record("Somebody Else", "La Liga", "2023"),
	}
	events := make([]transfer.Event, 16)
	for i := range events {
		events[i] = event("Nobody Here", "La Liga", 2023)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := service.Join(ctx, events, records)
		errCh <- err
	}()

	deadline := time.After(5 * time.Second)
	for scorer.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no comparison started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	close(scorer.release)

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Join error: got %v want context.Canceled", err)
	}
	// Join must not return while a worker is still mid-comparison.
	if started, finished := scorer.started.Load(), scorer.finished.Load(); started != finished {
		t.Fatalf("in-flight comparisons at return: started %d finished %d", started, finished)
	}
}

func TestChangesOnlyOnCompleteMatches(t *testing.T) {
	t.Parallel()

	before := record("A", "La Liga", "2022")
	after := record("A", "La Liga", "2023")
	after.Goals = before.Goals + 4
	after.DerivePer90()

	complete := matched.Transfer{Event: event("A", "La Liga", 2023), Before: &before, After: &after}
	changes := complete.Changes()
	if changes == nil {
		t.Fatal("complete match produced no changes")
	}
	found := false
	for _, change := range changes {
		if change.Name == "gls" {
			found = true
			if change.Delta != 4 {
				t.Fatalf("goals delta: got %v want 4", change.Delta)
			}
		}
	}
	if !found {
		t.Fatal("goals column missing from changes")
	}

	partial := matched.Transfer{Event: event("B", "La Liga", 2023), Before: &before}
	if partial.Changes() != nil {
		t.Fatal("partial match must not produce changes")
	}
}

func containsEvent(rows []matched.Transfer, player string) bool {
	for _, row := range rows {
		if row.Event.Player == player {
			return true
		}
	}
	return false
}
