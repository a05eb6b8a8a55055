package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"shadex-ai/internal/engine"
	"shadex-ai/internal/logger"
)

// Service 轮询调用的引擎操作
type Service interface {
	NextForecast(ctx context.Context) engine.Result
}

// Poller 定时拉取开奖记录，没有客户端请求时也能结算
type Poller struct {
	cron    *cron.Cron
	service Service
	timeout time.Duration
	runs    atomic.Int64
}

// NewPoller 创建轮询器
func NewPoller(service Service, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		service: service,
		timeout: timeout,
	}
}

// Register 注册轮询任务，schedule 支持秒字段和 @every
func (p *Poller) Register(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, p.RunNow); err != nil {
		return fmt.Errorf("register poll task %q: %w", schedule, err)
	}
	logger.Infof("Poll task registered: %s", schedule)
	return nil
}

// Start 启动调度
func (p *Poller) Start() {
	p.cron.Start()
	logger.Info("Scheduler started")
}

// Stop 停止调度并等待正在执行的任务
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// RunNow 立即执行一次轮询
func (p *Poller) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	result := p.service.NextForecast(ctx)
	p.runs.Add(1)

	if len(result.Resolved) > 0 {
		logger.Infof("Poll resolved %d rounds, upcoming %s", len(result.Resolved), result.Forecast.Period)
	} else {
		logger.Debugf("Poll finished with status %s, upcoming %s", result.Status, result.Forecast.Period)
	}
}

// Runs 已执行的轮询次数
func (p *Poller) Runs() int64 {
	return p.runs.Load()
}

// Entries 已注册的任务数量
func (p *Poller) Entries() int {
	return len(p.cron.Entries())
}
