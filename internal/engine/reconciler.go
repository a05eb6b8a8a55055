package engine

import (
	"shadex-ai/internal/cache"
	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/predictor"
)

// newRounds 返回开奖列表中尚未处理的前缀（最新在前），遇到已处理期号即停止
func (e *Engine) newRounds(entries []database.HistoryEntry) []database.HistoryEntry {
	var fresh []database.HistoryEntry
	for _, entry := range entries {
		period := entry.IssueNumber.String()
		if period == "" {
			continue
		}
		if e.book.IsProcessed(period) {
			break
		}
		fresh = append(fresh, entry)
	}
	return fresh
}

// reconcile 结算新出现的期号；调用方持有锁
//
// 开奖列表最新在前，但同一批次按从旧到新写入账本：账本头部始终是最新一期，
// nextPeriod 依赖这一点推算下一期，连胜串也按时间倒序读取。
func (e *Engine) reconcile(entries []database.HistoryEntry) []database.Forecast {
	fresh := e.newRounds(entries)
	if len(fresh) == 0 {
		return nil
	}

	now := e.clock()
	resolved := make([]database.Forecast, 0, len(fresh))
	for i := len(fresh) - 1; i >= 0; i-- {
		entry := fresh[i]
		period := entry.IssueNumber.String()
		if e.book.IsProcessed(period) {
			// 同一批次中重复的期号
			continue
		}

		forecast, _ := e.pending.Ensure(period, cache.Hint{})
		record := predictor.Resolve(forecast, entry, now)
		if err := e.book.Record(record); err != nil {
			logger.Errorf("Failed to record round %s: %v", period, err)
			continue
		}
		e.pending.Delete(period)
		resolved = append(resolved, record)

		logger.Debugf("Round %s resolved: predicted %s (%s), actual %s (%s) -> %s",
			period, record.Prediction, record.PredictionCategory,
			record.Actual, record.ActualCategory, record.Status)
	}

	return resolved
}
