package engine

import (
	"context"

	"shadex-ai/internal/cache"
	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/predictor"
)

// NextForecast 获取开奖记录、结算并返回下一期预测；开奖记录不可用时仍返回可用的预测
func (e *Engine) NextForecast(ctx context.Context) Result {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	entries, fetchErr := e.feed.FetchHistory(fetchCtx)
	cancel()

	e.mutex.Lock()
	var (
		result  Result
		created bool
	)
	if fetchErr != nil {
		result.Status = StatusError
		result.Err = fetchErr
		result.Forecast, created = e.pending.Ensure(predictor.CurrentPeriod(e.clock()), cache.Hint{})
	} else {
		result.Status = StatusOK
		result.Resolved = e.reconcile(entries)
		result.Forecast, created = e.pending.Ensure(e.nextPeriod(entries), e.hint())
	}
	result.Ledger = e.book.Entries()
	stats := e.book.Stats()
	listeners := e.snapshotListeners()
	e.mutex.Unlock()

	if fetchErr != nil {
		logger.Debugf("Feed unavailable, using period %s: %v", result.Forecast.Period, fetchErr)
	}

	for _, l := range listeners {
		if fetchErr != nil {
			l.OnFeedError(fetchErr)
		}
		if len(result.Resolved) > 0 {
			l.OnRoundsResolved(result.Resolved, stats)
		}
		if created {
			l.OnForecastCreated(result.Forecast)
		}
	}

	return result
}

// nextPeriod 账本最新期号优先，其次开奖列表最新期号，都没有时使用当前时间期号；调用方持有锁
func (e *Engine) nextPeriod(entries []database.HistoryEntry) string {
	if front, ok := e.book.Front(); ok && front.Period != "" {
		return predictor.IncrementPeriod(front.Period)
	}
	if len(entries) > 0 {
		if latest := entries[0].IssueNumber.String(); latest != "" {
			return predictor.IncrementPeriod(latest)
		}
	}
	return predictor.CurrentPeriod(e.clock())
}

// hint 评分模型的提示；调用方持有锁
func (e *Engine) hint() cache.Hint {
	suggestion := e.suggester.Suggest(e.book.Entries())
	if suggestion == nil {
		return cache.Hint{}
	}
	confidence := suggestion.ConfidenceHint()
	return cache.Hint{Category: suggestion.Category, Confidence: &confidence}
}
