package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"shadex-ai/internal/cache"
	"shadex-ai/internal/database"
	"shadex-ai/internal/ledger"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/predictor"
)

// DefaultFetchTimeout 单次获取开奖记录的超时
const DefaultFetchTimeout = 8 * time.Second

// Feed 官方开奖记录来源，返回最新在前的列表
type Feed interface {
	FetchHistory(ctx context.Context) ([]database.HistoryEntry, error)
}

// Suggester 评分模型
type Suggester interface {
	Suggest(history []database.Forecast) *predictor.Suggestion
	GetName() string
}

// Listener 引擎事件监听器，回调在引擎释放锁之后执行
type Listener interface {
	OnForecastCreated(forecast database.Forecast)
	OnRoundsResolved(rounds []database.Forecast, stats database.Stats)
	OnFeedError(err error)
}

// Status 预测结果状态
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "Error"
)

// Result nextForecast 的返回值
type Result struct {
	Status   Status
	Forecast database.Forecast
	Ledger   []database.Forecast
	Resolved []database.Forecast
	Err      error
}

// Response 转换为接口响应
func (r Result) Response() database.ForecastResponse {
	return database.ForecastResponse{
		Status: string(r.Status),
		PredictionResult: database.PredictionResult{
			Period:            r.Forecast.Period,
			Prediction:        r.Forecast.Prediction,
			Confidence:        r.Forecast.Confidence,
			RankedPredictions: r.Forecast.RankedPredictions,
			Category:          r.Forecast.PredictionCategory,
			Status:            r.Forecast.Status,
		},
		PendingPredictions: r.Ledger,
	}
}

// Engine 持有全部可变状态：待开奖缓存、账本和统计
type Engine struct {
	mutex     sync.Mutex
	feed      Feed
	suggester Suggester
	pending   *cache.ForecastCache
	book      *ledger.Book
	listeners []Listener

	clock           func() time.Time
	rand            *rand.Rand
	fetchTimeout    time.Duration
	ledgerCapacity  int
	pendingCapacity int
	statsWindow     int
}

// Option 引擎选项
type Option func(*Engine)

// WithClock 注入时钟
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRand 注入随机数来源
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithPredictor 设置评分模型
func WithPredictor(s Suggester) Option {
	return func(e *Engine) { e.suggester = s }
}

// WithListener 注册监听器
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// WithLedgerCapacity 账本容量
func WithLedgerCapacity(n int) Option {
	return func(e *Engine) { e.ledgerCapacity = n }
}

// WithPendingCapacity 待开奖缓存容量
func WithPendingCapacity(n int) Option {
	return func(e *Engine) { e.pendingCapacity = n }
}

// WithStatsWindow 连胜串使用的记录数
func WithStatsWindow(n int) Option {
	return func(e *Engine) { e.statsWindow = n }
}

// WithFetchTimeout 获取开奖记录的超时
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.fetchTimeout = d }
}

// New 创建引擎
func New(feed Feed, opts ...Option) *Engine {
	e := &Engine{
		feed:            feed,
		clock:           time.Now,
		fetchTimeout:    DefaultFetchTimeout,
		ledgerCapacity:  ledger.DefaultCapacity,
		pendingCapacity: cache.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(e.clock().UnixNano()))
	}
	if e.suggester == nil {
		e.suggester = predictor.NewUniformPredictor()
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = DefaultFetchTimeout
	}

	e.pending = cache.NewForecastCache(e.pendingCapacity, e.rand, e.clock)
	e.book = ledger.NewBook(e.ledgerCapacity)
	e.book.SetWindow(e.statsWindow)

	logger.Infof("Engine initialized (predictor=%s, ledger=%d, pending=%d)",
		e.suggester.GetName(), e.ledgerCapacity, e.pendingCapacity)
	return e
}

// AddListener 注册监听器，需在处理请求之前调用
func (e *Engine) AddListener(l Listener) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.listeners = append(e.listeners, l)
}

// Stats 当前统计
func (e *Engine) Stats() database.Stats {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.book.Stats()
}

// Ledger 账本记录，最新在前
func (e *Engine) Ledger() []database.Forecast {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.book.Entries()
}

// DeleteAt 删除账本中的一条记录，越界时不做任何操作
func (e *Engine) DeleteAt(index int) []database.Forecast {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.book.DeleteAt(index); err != nil {
		logger.Debugf("Ignoring ledger delete: %v", err)
	}
	return e.book.Entries()
}

// Clear 清空账本，累计胜负保留
func (e *Engine) Clear() []database.Forecast {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.book.Clear()
	return e.book.Entries()
}

// PendingCount 待开奖缓存数量
func (e *Engine) PendingCount() int {
	return e.pending.Len()
}

// PredictorName 当前评分模型名称
func (e *Engine) PredictorName() string {
	return e.suggester.GetName()
}

func (e *Engine) snapshotListeners() []Listener {
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	return listeners
}
