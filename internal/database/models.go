package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category 大小分类
type Category string

const (
	CategoryBig     Category = "Big"
	CategorySmall   Category = "Small"
	CategoryUnknown Category = "Unknown"
)

// Status 预测状态
type Status string

const (
	StatusPending Status = "pending"
	StatusWin     Status = "win"
	StatusLoss    Status = "loss"
)

// Resolved 是否已开奖
func (s Status) Resolved() bool {
	return s == StatusWin || s == StatusLoss
}

// Letter 连胜串使用的字母
func (s Status) Letter() string {
	switch s {
	case StatusWin:
		return "W"
	case StatusLoss:
		return "L"
	default:
		return "P"
	}
}

// RankedPick 备选号码
type RankedPick struct {
	Number string `json:"number"`
}

// Forecast 单期预测记录（待开奖或已开奖）
type Forecast struct {
	Period             string       `json:"period"`
	Prediction         string       `json:"prediction"`
	PredictionCategory Category     `json:"predictionCategory"`
	Confidence         int          `json:"confidence"`
	RankedPredictions  []RankedPick `json:"rankedPredictions"`
	Category           Category     `json:"category,omitempty"`
	Actual             string       `json:"actual,omitempty"`
	ActualCategory     Category     `json:"actualCategory,omitempty"`
	Status             Status       `json:"status"`
	Color              string       `json:"color,omitempty"`
	CreatedAt          time.Time    `json:"-"`
	ResolvedAt         *time.Time   `json:"-"`
}

// PredictionResult 下一期预测（接口返回）
type PredictionResult struct {
	Period            string       `json:"period"`
	Prediction        string       `json:"prediction"`
	Confidence        int          `json:"confidence"`
	RankedPredictions []RankedPick `json:"rankedPredictions"`
	Category          Category     `json:"category"`
	Status            Status       `json:"status"`
}

// ForecastResponse getPrediction 响应
type ForecastResponse struct {
	Status             string           `json:"status"`
	PredictionResult   PredictionResult `json:"predictionResult"`
	PendingPredictions []Forecast       `json:"pendingPredictions"`
}

// Stats 统计状态
type Stats struct {
	WinRate         int    `json:"winRate"`
	TotalWins       int    `json:"totalWins"`
	TotalLosses     int    `json:"totalLosses"`
	Streak          string `json:"streak"`
	LastFive        string `json:"lastFive"`
	LastFiveNumbers string `json:"lastFiveNumbers"`
	LastFivePattern string `json:"lastFivePattern"`
}

// Text 兼容字符串和数字的JSON字段
type Text string

// UnmarshalJSON 接受 "7"、7 和 null
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported text value %s: %w", string(data), err)
	}
	*t = Text(n.String())
	return nil
}

// String 去除首尾空白
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// HistoryEntry 官方开奖记录
type HistoryEntry struct {
	IssueNumber Text   `json:"issueNumber"`
	Number      Text   `json:"number"`
	Premium     Text   `json:"premium,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Outcome 开奖值，number 缺失时使用 premium
func (e HistoryEntry) Outcome() string {
	if v := e.Number.String(); v != "" {
		return v
	}
	return e.Premium.String()
}

// HistoryResponse 官方历史接口响应
type HistoryResponse struct {
	Code        Text   `json:"code"`
	Msg         string `json:"msg"`
	ServiceTime Text   `json:"serviceTime"`
	Data        struct {
		List []HistoryEntry `json:"list"`
	} `json:"data"`
}
