package engine

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadex-ai/internal/database"
	"shadex-ai/internal/predictor"
)

var fixedNow = time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

type fakeFeed struct {
	mutex   sync.Mutex
	entries []database.HistoryEntry
	err     error
	block   bool
	calls   int
}

func (f *fakeFeed) FetchHistory(ctx context.Context) ([]database.HistoryEntry, error) {
	f.mutex.Lock()
	f.calls++
	entries, err, block := f.entries, f.err, f.block
	f.mutex.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return entries, err
}

func (f *fakeFeed) set(entries ...database.HistoryEntry) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.entries = entries
	f.err = nil
}

type recordingListener struct {
	created  []database.Forecast
	resolved [][]database.Forecast
	stats    []database.Stats
	errs     []error
}

func (l *recordingListener) OnForecastCreated(f database.Forecast) {
	l.created = append(l.created, f)
}

func (l *recordingListener) OnRoundsResolved(rounds []database.Forecast, stats database.Stats) {
	l.resolved = append(l.resolved, rounds)
	l.stats = append(l.stats, stats)
}

func (l *recordingListener) OnFeedError(err error) {
	l.errs = append(l.errs, err)
}

func entry(issue, number string) database.HistoryEntry {
	return database.HistoryEntry{IssueNumber: database.Text(issue), Number: database.Text(number)}
}

func newTestEngine(feed Feed, opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewSource(7))),
	}
	return New(feed, append(base, opts...)...)
}

func TestSingleEntryScenario(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("20240101-0001", "7"))
	e := newTestEngine(feed)

	result := e.NextForecast(context.Background())
	require.Equal(t, StatusOK, result.Status)

	require.Len(t, result.Resolved, 1)
	round := result.Resolved[0]
	assert.Equal(t, database.CategoryBig, round.ActualCategory)
	assert.Equal(t, round.PredictionCategory == database.CategoryBig,
		round.Status == database.StatusWin)

	stats := e.Stats()
	assert.Len(t, e.Ledger(), 1)
	assert.Equal(t, 1, stats.TotalWins+stats.TotalLosses)
}

func TestForecastIsStableAcrossRequests(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("1000", "3"))
	e := newTestEngine(feed)

	first := e.NextForecast(context.Background())
	second := e.NextForecast(context.Background())

	assert.Equal(t, "1001", first.Forecast.Period)
	assert.Equal(t, first.Forecast, second.Forecast)
	assert.Equal(t, database.StatusPending, first.Forecast.Status)
}

func TestForecastResolvesAgainstCachedPrediction(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("1000", "3"))
	e := newTestEngine(feed)

	upcoming := e.NextForecast(context.Background()).Forecast
	require.Equal(t, "1001", upcoming.Period)

	feed.set(entry("1001", "8"), entry("1000", "3"))
	result := e.NextForecast(context.Background())

	require.Len(t, result.Resolved, 1)
	round := result.Resolved[0]
	assert.Equal(t, "1001", round.Period)
	assert.Equal(t, upcoming.Prediction, round.Prediction)
	assert.Equal(t, upcoming.Confidence, round.Confidence)
	assert.Equal(t, "8", round.Actual)
	if upcoming.PredictionCategory == database.CategoryBig {
		assert.Equal(t, database.StatusWin, round.Status)
	} else {
		assert.Equal(t, database.StatusLoss, round.Status)
	}
	assert.Equal(t, "1002", result.Forecast.Period)
}

func TestReconcilerShortCircuit(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("r4", "1"))
	e := newTestEngine(feed)
	e.NextForecast(context.Background())

	feed.set(entry("r5", "6"), entry("r4", "1"), entry("r3", "2"))
	result := e.NextForecast(context.Background())

	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "r5", result.Resolved[0].Period)

	e.mutex.Lock()
	defer e.mutex.Unlock()
	assert.False(t, e.book.IsProcessed("r3"))
	assert.Equal(t, 2, e.book.Len())
}

func TestReconcilerSkipsMissingRounds(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("", "9"), entry("2001", "2"), entry("  ", "1"), entry("2000", "8"))
	e := newTestEngine(feed)

	result := e.NextForecast(context.Background())
	require.Len(t, result.Resolved, 2)

	ledger := e.Ledger()
	require.Len(t, ledger, 2)
	assert.Equal(t, "2001", ledger[0].Period)
	assert.Equal(t, "2000", ledger[1].Period)
	assert.Equal(t, "2002", result.Forecast.Period)
}

func TestBatchRecordedNewestAtFront(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("3000", "1"))
	e := newTestEngine(feed)
	e.NextForecast(context.Background())

	feed.set(entry("3003", "9"), entry("3002", "4"), entry("3001", "6"), entry("3000", "1"))
	result := e.NextForecast(context.Background())

	require.Len(t, result.Resolved, 3)
	assert.Equal(t, "3001", result.Resolved[0].Period)
	assert.Equal(t, "3003", result.Resolved[2].Period)

	ledger := e.Ledger()
	require.Len(t, ledger, 4)
	for i, period := range []string{"3003", "3002", "3001", "3000"} {
		assert.Equal(t, period, ledger[i].Period)
	}
	assert.Equal(t, "3004", result.Forecast.Period)

	var streak string
	for _, record := range ledger {
		streak += record.Status.Letter()
	}
	assert.Equal(t, streak, e.Stats().Streak)
}

func TestLedgerKeepsTwelveMostRecent(t *testing.T) {
	feed := &fakeFeed{}
	e := newTestEngine(feed)

	var entries []database.HistoryEntry
	for i := 120; i >= 101; i-- {
		entries = append(entries, entry(strconv.Itoa(i), strconv.Itoa(i%10)))
	}
	feed.set(entries...)

	result := e.NextForecast(context.Background())
	assert.Len(t, result.Resolved, 20)

	ledger := e.Ledger()
	require.Len(t, ledger, 12)
	for i, record := range ledger {
		assert.Equal(t, strconv.Itoa(120-i), record.Period)
	}
	assert.Equal(t, "121", result.Forecast.Period)

	stats := e.Stats()
	assert.Equal(t, 20, stats.TotalWins+stats.TotalLosses)
	assert.Equal(t, 1, e.PendingCount())
}

func TestFeedTimeoutFallsBack(t *testing.T) {
	feed := &fakeFeed{block: true}
	listener := &recordingListener{}
	e := newTestEngine(feed, WithFetchTimeout(20*time.Millisecond), WithListener(listener))

	result := e.NextForecast(context.Background())

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Equal(t, predictor.CurrentPeriod(fixedNow), result.Forecast.Period)

	digit, err := strconv.Atoi(result.Forecast.Prediction)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, digit, 0)
	assert.LessOrEqual(t, digit, 9)

	require.Len(t, listener.errs, 1)
	require.Len(t, listener.created, 1)
	assert.Empty(t, listener.resolved)

	response := result.Response()
	assert.Equal(t, "Error", response.Status)
	assert.Equal(t, "20240101-0630", response.PredictionResult.Period)
}

func TestFeedErrorKeepsState(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("500", "4"))
	e := newTestEngine(feed)
	e.NextForecast(context.Background())

	feed.mutex.Lock()
	feed.err = errors.New("connection refused")
	feed.mutex.Unlock()

	result := e.NextForecast(context.Background())
	assert.Equal(t, StatusError, result.Status)
	assert.Len(t, result.Ledger, 1)
	assert.Equal(t, 1, e.Stats().TotalWins+e.Stats().TotalLosses)
}

func TestListenerNotifications(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("10", "1"))
	listener := &recordingListener{}
	e := newTestEngine(feed, WithListener(listener))

	e.NextForecast(context.Background())
	e.NextForecast(context.Background())

	require.Len(t, listener.created, 1)
	assert.Equal(t, "11", listener.created[0].Period)
	require.Len(t, listener.resolved, 1)
	assert.Equal(t, "10", listener.resolved[0][0].Period)
	assert.Equal(t, 1, listener.stats[0].TotalWins+listener.stats[0].TotalLosses)
	assert.Empty(t, listener.errs)
}

func TestModelHintShapesForecast(t *testing.T) {
	descriptor := &predictor.ModelDescriptor{
		WindowSize:   2,
		FeatureNames: []string{"bias"},
		Weights:      []float64{-5},
	}
	feed := &fakeFeed{}
	feed.set(entry("2", "9"), entry("1", "8"))
	e := newTestEngine(feed, WithPredictor(predictor.NewPredictorManager(descriptor)))

	result := e.NextForecast(context.Background())
	assert.Equal(t, "3", result.Forecast.Period)
	assert.Equal(t, database.CategorySmall, result.Forecast.PredictionCategory)
	// p = 1/(1+e^5)，提示为 floor(65 + p*30)
	assert.Equal(t, 65, result.Forecast.Confidence)
	assert.Equal(t, "logistic", e.PredictorName())
}

func TestDeleteAndClearKeepTotals(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("3", "1"), entry("2", "2"), entry("1", "3"))
	e := newTestEngine(feed)
	e.NextForecast(context.Background())

	before := e.Stats()
	remaining := e.DeleteAt(0)
	assert.Len(t, remaining, 2)
	assert.Equal(t, "2", remaining[0].Period)

	assert.Len(t, e.DeleteAt(10), 2)
	assert.Len(t, e.DeleteAt(-1), 2)

	assert.Empty(t, e.Clear())
	after := e.Stats()
	assert.Equal(t, before.TotalWins, after.TotalWins)
	assert.Equal(t, before.TotalLosses, after.TotalLosses)
	assert.Equal(t, before.WinRate, after.WinRate)
	assert.Equal(t, "", after.Streak)
}

func TestConcurrentRequestsShareForecast(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(entry("900", "5"))
	e := newTestEngine(feed)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.NextForecast(context.Background())
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0].Forecast, r.Forecast)
	}
	assert.Equal(t, 1, e.Stats().TotalWins+e.Stats().TotalLosses)
}
