package cache

import (
	"strconv"
	"sync"
	"time"

	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/predictor"
)

// DefaultCapacity 待开奖预测的默认上限
const DefaultCapacity = 1000

// Rand 随机数来源
type Rand interface {
	Intn(n int) int
}

// Hint 生成预测时的提示
type Hint struct {
	Category   database.Category
	Confidence *int
}

// ForecastItem 缓存项
type ForecastItem struct {
	Forecast database.Forecast
	seq      uint64
}

// ForecastCache 按期号缓存的待开奖预测
type ForecastCache struct {
	items    map[string]*ForecastItem
	mutex    sync.Mutex
	rand     Rand
	now      func() time.Time
	capacity int
	seq      uint64
	evicted  int64
	created  int64
}

// CacheStats 缓存统计
type CacheStats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Created  int64 `json:"created"`
	Evicted  int64 `json:"evicted"`
}

// NewForecastCache 创建预测缓存
func NewForecastCache(capacity int, rnd Rand, now func() time.Time) *ForecastCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &ForecastCache{
		items:    make(map[string]*ForecastItem),
		rand:     rnd,
		now:      now,
		capacity: capacity,
	}
}

// Ensure 返回该期的预测，不存在时按提示生成；created 表示是否新建
func (c *ForecastCache) Ensure(period string, hint Hint) (database.Forecast, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if item, exists := c.items[period]; exists {
		return item.Forecast, false
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	forecast := c.generate(period, hint)
	c.seq++
	c.created++
	c.items[period] = &ForecastItem{Forecast: forecast, seq: c.seq}

	logger.Debugf("Forecast cache created: %s -> %s (%d%%)", period, forecast.Prediction, forecast.Confidence)
	return forecast, true
}

func (c *ForecastCache) generate(period string, hint Hint) database.Forecast {
	var digit int
	switch hint.Category {
	case database.CategoryBig:
		digit = 5 + c.rand.Intn(5)
	case database.CategorySmall:
		digit = c.rand.Intn(5)
	default:
		digit = c.rand.Intn(10)
	}

	confidence := 65 + c.rand.Intn(30)
	if hint.Confidence != nil {
		confidence = clamp(*hint.Confidence, 30, 99)
	}

	return database.Forecast{
		Period:             period,
		Prediction:         strconv.Itoa(digit),
		PredictionCategory: predictor.CategoryOf(int64(digit)),
		Confidence:         confidence,
		RankedPredictions:  predictor.RankedPicks(digit),
		Status:             database.StatusPending,
		CreatedAt:          c.now(),
	}
}

// Get 获取缓存的预测
func (c *ForecastCache) Get(period string) (database.Forecast, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, exists := c.items[period]
	if !exists {
		return database.Forecast{}, false
	}
	return item.Forecast, true
}

// Delete 删除缓存的预测
func (c *ForecastCache) Delete(period string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, period)
}

// Len 当前缓存数量
func (c *ForecastCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.items)
}

// GetStats 获取缓存统计
func (c *ForecastCache) GetStats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return CacheStats{
		Size:     len(c.items),
		Capacity: c.capacity,
		Created:  c.created,
		Evicted:  c.evicted,
	}
}

// evictOldest 淘汰最早插入的预测，调用方持有锁
func (c *ForecastCache) evictOldest() {
	var oldestKey string
	var oldestSeq uint64
	found := false

	for key, item := range c.items {
		if !found || item.seq < oldestSeq {
			oldestKey = key
			oldestSeq = item.seq
			found = true
		}
	}

	if found {
		delete(c.items, oldestKey)
		c.evicted++
		logger.Debugf("Forecast cache evicted oldest: %s", oldestKey)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
