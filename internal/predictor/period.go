package predictor

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// CurrentPeriod 根据UTC时间生成期号 YYYYMMDD-MMMM
func CurrentPeriod(now time.Time) string {
	now = now.UTC()
	minutes := now.Hour()*60 + now.Minute()
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), minutes)
}

// IncrementPeriod 期号加一并保持原长度；非数字期号原样返回
func IncrementPeriod(period string) string {
	if period == "" || !isDigits(period) {
		return period
	}

	n, ok := new(big.Int).SetString(period, 10)
	if !ok {
		return period
	}
	next := n.Add(n, big.NewInt(1)).String()
	if len(next) < len(period) {
		next = strings.Repeat("0", len(period)-len(next)) + next
	}
	return next
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
