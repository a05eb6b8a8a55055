package predictor

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"shadex-ai/internal/database"
)

var signedIntPattern = regexp.MustCompile(`-?\d+`)

// Classify 将开奖值映射为大/小/未知
func Classify(value string) database.Category {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return database.CategoryUnknown
	}

	// 文字标签优先于数字
	if strings.Contains(text, "small") {
		return database.CategorySmall
	}
	if strings.Contains(text, "big") {
		return database.CategoryBig
	}

	n, ok := FirstInt(text)
	if !ok {
		return database.CategoryUnknown
	}
	return CategoryOf(n)
}

// CategoryOf 数字 >= 5 为大
func CategoryOf(n int64) database.Category {
	if n >= 5 {
		return database.CategoryBig
	}
	return database.CategorySmall
}

// FirstInt 提取第一个带符号整数
func FirstInt(text string) (int64, bool) {
	match := signedIntPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		// 超出范围时保留符号
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(match, "-") {
				return -1 << 63, true
			}
			return 1<<63 - 1, true
		}
		return 0, false
	}
	return n, true
}
