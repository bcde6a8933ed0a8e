package picks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/signal-picks-service/internal/database"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type commitCall struct {
	Date    time.Time
	Hour    int
	Scored  []models.ScoredCandidate
	Winners []string
}

type materializeCall struct {
	Date time.Time
	TopN int
}

type mockStore struct {
	completed    bool
	completedErr error
	eligible     []string
	eligibleErr  error
	commitErr    error

	commits      []commitCall
	materialized []materializeCall
}

func (m *mockStore) SlotCompleted(date time.Time, hour int) (bool, error) {
	return m.completed, m.completedErr
}

func (m *mockStore) EligibleSymbols(date time.Time) ([]string, error) {
	return m.eligible, m.eligibleErr
}

func (m *mockStore) CommitSlotRun(date time.Time, hour int, scored []models.ScoredCandidate, winners []string) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits = append(m.commits, commitCall{Date: date, Hour: hour, Scored: scored, Winners: winners})
	return nil
}

func (m *mockStore) MaterializeBestOfDay(date time.Time, topN int) error {
	m.materialized = append(m.materialized, materializeCall{Date: date, TopN: topN})
	return nil
}

type mockScorer struct {
	scores map[string]float64
	fail   map[string]bool
	calls  []string
}

func (m *mockScorer) Score(ctx context.Context, symbol string) (*models.ScoredCandidate, error) {
	m.calls = append(m.calls, symbol)
	if m.fail[symbol] {
		return nil, errors.New("scorer unavailable")
	}
	return &models.ScoredCandidate{
		Symbol: symbol,
		Score:  m.scores[symbol],
		Price:  decimal.NewFromInt(100),
	}, nil
}

type publishCall struct {
	Date    time.Time
	Hour    int
	Winners []string
}

type mockPublisher struct {
	err       error
	published []publishCall
}

func (m *mockPublisher) PublishPicksSelected(ctx context.Context, date time.Time, hour int, winners []string) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, publishCall{Date: date, Hour: hour, Winners: winners})
	return nil
}

func newTestEngine(store *mockStore, scorer *mockScorer, publisher *mockPublisher) *Engine {
	return NewEngine(Options{
		Store:          store,
		Scorer:         scorer,
		Sampler:        NewRandomSampler(1),
		Publisher:      publisher,
		MaxPoolSize:    50,
		WinnersPerHour: 5,
		BestOfDayCount: 10,
	})
}

var testDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestEngine_Run_SelectsTopFiveAndCommits(t *testing.T) {
	store := &mockStore{
		eligible: []string{"AAPL", "AMZN", "GOOG", "MSFT", "NVDA", "SOFI", "TSLA"},
	}
	scorer := &mockScorer{scores: map[string]float64{
		"AAPL": 62.5, "AMZN": 80.3, "GOOG": 74.2, "MSFT": 91.0,
		"NVDA": 88.1, "SOFI": 41.7, "TSLA": 55.0,
	}}
	publisher := &mockPublisher{}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 14)
	require.NoError(t, err)

	require.Len(t, store.commits, 1)
	commit := store.commits[0]
	assert.Equal(t, 14, commit.Hour)
	// Every scored candidate is persisted, winners and losers alike
	assert.Len(t, commit.Scored, 7)
	assert.Equal(t, []string{"MSFT", "NVDA", "AMZN", "GOOG", "AAPL"}, commit.Winners)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, commit.Winners, publisher.published[0].Winners)
}

func TestEngine_Run_SkipsCompletedSlot(t *testing.T) {
	store := &mockStore{completed: true, eligible: []string{"AAPL"}}
	scorer := &mockScorer{scores: map[string]float64{"AAPL": 50}}
	publisher := &mockPublisher{}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 14)
	require.NoError(t, err)

	// No scoring, no writes, no events
	assert.Empty(t, scorer.calls)
	assert.Empty(t, store.commits)
	assert.Empty(t, publisher.published)
}

func TestEngine_Run_NoEligibleCandidates(t *testing.T) {
	store := &mockStore{eligible: nil}
	scorer := &mockScorer{}
	publisher := &mockPublisher{}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	// Zero winners, zero rows written, slot left open
	assert.Empty(t, scorer.calls)
	assert.Empty(t, store.commits)
}

func TestEngine_Run_ScorerFailuresDroppedFromRanking(t *testing.T) {
	store := &mockStore{
		eligible: []string{"AAPL", "GOOG", "MSFT"},
	}
	scorer := &mockScorer{
		scores: map[string]float64{"AAPL": 10, "MSFT": 90},
		fail:   map[string]bool{"GOOG": true},
	}

	engine := newTestEngine(store, scorer, &mockPublisher{})
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	require.Len(t, store.commits, 1)
	commit := store.commits[0]
	// GOOG dropped entirely, not treated as score 0
	assert.Len(t, commit.Scored, 2)
	assert.Equal(t, []string{"MSFT", "AAPL"}, commit.Winners)
}

func TestEngine_Run_AllScoringFailsLeavesSlotOpen(t *testing.T) {
	store := &mockStore{eligible: []string{"AAPL", "GOOG"}}
	scorer := &mockScorer{fail: map[string]bool{"AAPL": true, "GOOG": true}}

	engine := newTestEngine(store, scorer, &mockPublisher{})
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	assert.Empty(t, store.commits)
}

func TestEngine_Run_ShortfallCommitsFewerWinners(t *testing.T) {
	store := &mockStore{eligible: []string{"AAPL", "GOOG", "MSFT"}}
	scorer := &mockScorer{scores: map[string]float64{"AAPL": 10, "GOOG": 20, "MSFT": 30}}

	engine := newTestEngine(store, scorer, &mockPublisher{})
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	require.Len(t, store.commits, 1)
	// Exactly 3 winners, no backfill to 5
	assert.Len(t, store.commits[0].Winners, 3)
}

func TestEngine_Run_LostRaceIsNotAnError(t *testing.T) {
	store := &mockStore{
		eligible:  []string{"AAPL"},
		commitErr: database.ErrSlotCompleted,
	}
	scorer := &mockScorer{scores: map[string]float64{"AAPL": 50}}
	publisher := &mockPublisher{}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	assert.Empty(t, publisher.published)
}

func TestEngine_Run_DuplicateWinnerAbortsRun(t *testing.T) {
	store := &mockStore{
		eligible:  []string{"AAPL"},
		commitErr: database.ErrDuplicateWinner,
	}
	scorer := &mockScorer{scores: map[string]float64{"AAPL": 50}}
	publisher := &mockPublisher{}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 9)

	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDuplicateWinner)
	// Nothing committed, nothing published; the slot stays retryable
	assert.Empty(t, publisher.published)
}

func TestEngine_Run_PublisherFailureDoesNotFailRun(t *testing.T) {
	store := &mockStore{eligible: []string{"AAPL"}}
	scorer := &mockScorer{scores: map[string]float64{"AAPL": 50}}
	publisher := &mockPublisher{err: errors.New("broker down")}

	engine := newTestEngine(store, scorer, publisher)
	err := engine.Run(context.Background(), testDate, 9)

	require.NoError(t, err)
	require.Len(t, store.commits, 1)
}

func TestEngine_Run_SamplerBoundsScoringWork(t *testing.T) {
	eligible := make([]string, 80)
	scores := make(map[string]float64, 80)
	for i := range eligible {
		symbol := symbols(80)[i]
		eligible[i] = symbol
		scores[symbol] = float64(i)
	}

	store := &mockStore{eligible: eligible}
	scorer := &mockScorer{scores: scores}

	engine := newTestEngine(store, scorer, &mockPublisher{})
	err := engine.Run(context.Background(), testDate, 9)
	require.NoError(t, err)

	// Only the bounded pool was scored
	assert.Len(t, scorer.calls, 50)
	require.Len(t, store.commits, 1)
	assert.Len(t, store.commits[0].Scored, 50)
	assert.Len(t, store.commits[0].Winners, 5)
}

// ---------------------------------------------------------------------------
// MaterializeDay
// ---------------------------------------------------------------------------

func TestEngine_MaterializeDay(t *testing.T) {
	store := &mockStore{}

	engine := newTestEngine(store, &mockScorer{}, &mockPublisher{})
	err := engine.MaterializeDay(testDate)
	require.NoError(t, err)

	require.Len(t, store.materialized, 1)
	assert.Equal(t, 10, store.materialized[0].TopN)
	assert.Equal(t, testDate, store.materialized[0].Date)
}
