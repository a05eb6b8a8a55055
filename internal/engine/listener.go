package engine

import (
	"sync"

	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
)

// LogListener 记录引擎事件，相同的接口错误只记录一次
type LogListener struct {
	mutex        sync.Mutex
	lastFeedErr  string
	failureCount int
}

// NewLogListener 创建日志监听器
func NewLogListener() *LogListener {
	return &LogListener{}
}

// OnForecastCreated 新预测
func (l *LogListener) OnForecastCreated(forecast database.Forecast) {
	logger.Infof("Forecast for round %s: %s (%s, %d%%)",
		forecast.Period, forecast.Prediction, forecast.PredictionCategory, forecast.Confidence)
}

// OnRoundsResolved 结算完成，接口已恢复
func (l *LogListener) OnRoundsResolved(rounds []database.Forecast, stats database.Stats) {
	l.recovered()
	logger.Infof("Resolved %d rounds, win rate %d%% (%dW/%dL)",
		len(rounds), stats.WinRate, stats.TotalWins, stats.TotalLosses)
}

// OnFeedError 只在首次出错或错误变化时记录
func (l *LogListener) OnFeedError(err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.failureCount++
	if msg := err.Error(); msg != l.lastFeedErr {
		logger.Warnf("Failed to fetch official history: %v", err)
		l.lastFeedErr = msg
	}
}

func (l *LogListener) recovered() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.failureCount > 0 {
		logger.Infof("Feed connection recovered after %d failures", l.failureCount)
	}
	l.lastFeedErr = ""
	l.failureCount = 0
}
