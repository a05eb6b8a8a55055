package predictor

import (
	"time"

	"shadex-ai/internal/database"
)

// Resolve 用官方开奖结果结算一条预测
// 大小一致为 win，否则为 loss（包括无法识别的开奖值）
func Resolve(forecast database.Forecast, entry database.HistoryEntry, now time.Time) database.Forecast {
	predicted := forecast.PredictionCategory
	if predicted == "" {
		predicted = Classify(forecast.Prediction)
	}

	actualCategory := Classify(entry.Outcome())
	status := database.StatusLoss
	if actualCategory == predicted {
		status = database.StatusWin
	}

	resolvedAt := now
	resolved := forecast
	resolved.Period = entry.IssueNumber.String()
	resolved.PredictionCategory = predicted
	resolved.Category = predicted
	resolved.Actual = entry.Outcome()
	resolved.ActualCategory = actualCategory
	resolved.Status = status
	resolved.Color = entry.Color
	resolved.ResolvedAt = &resolvedAt
	resolved.RankedPredictions = append([]database.RankedPick(nil), forecast.RankedPredictions...)
	return resolved
}

// RankedPicks 以预测号码为起点生成3个备选
func RankedPicks(pivot int) []database.RankedPick {
	picks := make([]database.RankedPick, 3)
	for i := range picks {
		picks[i] = database.RankedPick{Number: string(rune('0' + (pivot+i)%10))}
	}
	return picks
}
