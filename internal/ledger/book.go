package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"shadex-ai/internal/database"
)

// DefaultCapacity 账本默认保留的记录数
const DefaultCapacity = 12

// DefaultWindow 连胜串和最近五期使用的长度
const DefaultWindow = 5

var (
	// ErrPendingRecord 账本只接受已开奖记录
	ErrPendingRecord = errors.New("ledger accepts resolved forecasts only")
	// ErrIndexOutOfRange 删除位置越界
	ErrIndexOutOfRange = errors.New("ledger index out of range")
)

// Book 已开奖记录账本及累计统计
type Book struct {
	ring        *Ring[database.Forecast]
	processed   map[string]struct{}
	window      int
	totalWins   int
	totalLosses int
}

// NewBook 创建账本
func NewBook(capacity int) *Book {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{
		ring:      NewRing[database.Forecast](capacity),
		processed: make(map[string]struct{}),
		window:    DefaultWindow,
	}
}

// SetWindow 设置统计窗口长度
func (b *Book) SetWindow(n int) {
	if n > 0 {
		b.window = n
	}
}

// Record 记录一期开奖结果，并标记为已处理
func (b *Book) Record(forecast database.Forecast) error {
	if !forecast.Status.Resolved() {
		return fmt.Errorf("%w: period %s is %s", ErrPendingRecord, forecast.Period, forecast.Status)
	}

	b.ring.PushFront(forecast)
	b.processed[forecast.Period] = struct{}{}
	if forecast.Status == database.StatusWin {
		b.totalWins++
	} else {
		b.totalLosses++
	}
	return nil
}

// IsProcessed 是否已处理过该期号
func (b *Book) IsProcessed(period string) bool {
	_, exists := b.processed[period]
	return exists
}

// ProcessedCount 已处理期号数量
func (b *Book) ProcessedCount() int {
	return len(b.processed)
}

// DeleteAt 删除一条记录，累计统计不变
func (b *Book) DeleteAt(index int) error {
	if _, ok := b.ring.RemoveAt(index); !ok {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return nil
}

// Clear 清空记录，累计统计和已处理期号保留
func (b *Book) Clear() {
	b.ring.Clear()
}

// Entries 从新到旧的记录副本
func (b *Book) Entries() []database.Forecast {
	return b.ring.Slice()
}

// Front 最新记录
func (b *Book) Front() (database.Forecast, bool) {
	return b.ring.Front()
}

// Len 当前记录数
func (b *Book) Len() int {
	return b.ring.Len()
}

// Stats 计算统计状态
func (b *Book) Stats() database.Stats {
	total := b.totalWins + b.totalLosses
	winRate := 0
	if total > 0 {
		winRate = int(math.Round(float64(b.totalWins) / float64(total) * 100))
		if winRate > 99 {
			winRate = 99
		}
	}

	var streak strings.Builder
	digits := make([]string, 0, b.window)
	pattern := make([]string, 0, b.window)
	for i := 0; i < b.window; i++ {
		entry, ok := b.ring.At(i)
		if !ok {
			break
		}
		streak.WriteString(entry.Status.Letter())
		digits = append(digits, entry.Prediction)

		category := entry.Category
		if category == "" {
			category = entry.PredictionCategory
		}
		pattern = append(pattern, string(category))
	}
	lastFive := strings.Join(digits, ",")

	return database.Stats{
		WinRate:         winRate,
		TotalWins:       b.totalWins,
		TotalLosses:     b.totalLosses,
		Streak:          streak.String(),
		LastFive:        lastFive,
		LastFiveNumbers: lastFive,
		LastFivePattern: strings.Join(pattern, ","),
	}
}
