package database

import (
	"context"
	"sync"
	"time"

	"shadex-ai/internal/logger"
)

const (
	archiveQueueSize    = 256
	archiveWriteTimeout = 5 * time.Second
)

// RoundStore 归档写入接口
type RoundStore interface {
	SaveForecast(ctx context.Context, forecast Forecast) error
	SaveResolution(ctx context.Context, round Forecast) error
}

type archiveJob struct {
	forecast Forecast
	resolved bool
}

// Archiver 异步写入归档，队列满时丢弃并记录日志
type Archiver struct {
	store  RoundStore
	jobs   chan archiveJob
	wg     sync.WaitGroup
	mutex  sync.RWMutex
	closed bool
}

// NewArchiver 创建归档器并启动写入协程
func NewArchiver(store RoundStore) *Archiver {
	a := &Archiver{
		store: store,
		jobs:  make(chan archiveJob, archiveQueueSize),
	}

	a.wg.Add(1)
	go a.run()
	return a
}

// OnForecastCreated 归档新预测
func (a *Archiver) OnForecastCreated(forecast Forecast) {
	a.enqueue(archiveJob{forecast: forecast})
}

// OnRoundsResolved 归档结算结果
func (a *Archiver) OnRoundsResolved(rounds []Forecast, _ Stats) {
	for _, round := range rounds {
		a.enqueue(archiveJob{forecast: round, resolved: true})
	}
}

// OnFeedError 归档器不关心
func (a *Archiver) OnFeedError(error) {}

// Close 停止接收并等待队列写完，关闭后的事件直接丢弃
func (a *Archiver) Close() {
	a.mutex.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mutex.Unlock()
	a.wg.Wait()
}

func (a *Archiver) enqueue(job archiveJob) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if a.closed {
		logger.Debugf("Archiver closed, skipping round %s", job.forecast.Period)
		return
	}

	select {
	case a.jobs <- job:
	default:
		logger.Warnf("Archive queue full, dropping round %s", job.forecast.Period)
	}
}

func (a *Archiver) run() {
	defer a.wg.Done()

	for job := range a.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
		var err error
		if job.resolved {
			err = a.store.SaveResolution(ctx, job.forecast)
		} else {
			err = a.store.SaveForecast(ctx, job.forecast)
		}
		cancel()

		if err != nil {
			logger.Errorf("Failed to archive round: %v", err)
		}
	}
}
