package telegram

import (
	"fmt"
	"strings"

	"shadex-ai/internal/database"
	"shadex-ai/internal/engine"
)

const welcomeText = `🎮 Welcome to Shadex AI!

🤖 I track WinGo rounds and provide:
• 🔮 Big/Small forecast for the next round
• 📈 Recent resolved rounds
• 📊 Win rate and streak statistics

📝 Available commands:
/forecast - Forecast for the upcoming round
/history - Recent resolved rounds
/stats - Win rate statistics
/help - Help information

⚠️ Note: This bot only answers in private chats`

const helpText = `📖 Command Help:

/start - Start using the bot
/forecast - Get the forecast for the upcoming round
/history - View recent resolved rounds
/stats - View win rate and streak
/help - Show this help information

💡 Keywords: 预测 / 历史 / 统计 also work.
Forecasts are for reference only, please be rational.`

// formatForecastMessage 格式化下一期预测
func (b *Bot) formatForecastMessage(result engine.Result) string {
	var builder strings.Builder
	forecast := result.Forecast

	builder.WriteString("🔮 *Upcoming Forecast*\n\n")
	builder.WriteString(fmt.Sprintf("Round: `%s`\n", forecast.Period))
	builder.WriteString(fmt.Sprintf("Prediction: `%s` (%s)\n", forecast.Prediction, forecast.PredictionCategory))
	builder.WriteString(fmt.Sprintf("Confidence: `%d%%`\n", forecast.Confidence))

	picks := make([]string, 0, len(forecast.RankedPredictions))
	for _, pick := range forecast.RankedPredictions {
		picks = append(picks, pick.Number)
	}
	builder.WriteString(fmt.Sprintf("Alternatives: `%s`\n", strings.Join(picks, ", ")))

	if result.Status != engine.StatusOK {
		builder.WriteString("\n⚠️ Result feed unavailable, round derived from clock")
	}

	return builder.String()
}

// formatStatsMessage 格式化统计信息
func (b *Bot) formatStatsMessage(stats database.Stats) string {
	var builder strings.Builder

	builder.WriteString("📊 *Statistics*\n\n")
	builder.WriteString(fmt.Sprintf("Win Rate: `%d%%`\n", stats.WinRate))
	builder.WriteString(fmt.Sprintf("Wins: `%d` | Losses: `%d`\n", stats.TotalWins, stats.TotalLosses))

	if stats.Streak != "" {
		builder.WriteString(fmt.Sprintf("Streak: `%s`\n", stats.Streak))
		builder.WriteString(fmt.Sprintf("Last Five: `%s`\n", stats.LastFive))
		builder.WriteString(fmt.Sprintf("Pattern: `%s`\n", stats.LastFivePattern))
	} else {
		builder.WriteString("No resolved rounds yet\n")
	}

	return builder.String()
}

// formatHistoryMessage 格式化已结算记录，最新在前
func (b *Bot) formatHistoryMessage(rounds []database.Forecast) string {
	var builder strings.Builder

	builder.WriteString("📈 *Recent Rounds*\n\n")

	if len(rounds) == 0 {
		builder.WriteString("No resolved rounds")
		return builder.String()
	}

	for _, round := range rounds {
		builder.WriteString(b.formatRoundLine(round))
		builder.WriteString("\n")
	}

	return builder.String()
}

// formatRoundLine Round 1001 Big丨Result：8 Big Correct✅
func (b *Bot) formatRoundLine(round database.Forecast) string {
	result := "Correct✅"
	if round.Status == database.StatusLoss {
		result = "Wrong❌"
	}
	actual := round.Actual
	if actual == "" {
		actual = "-"
	}
	return fmt.Sprintf("Round %s %s丨Result：%s %s %s",
		round.Period, round.PredictionCategory, actual, round.ActualCategory, result)
}

// formatNewForecastBroadcast 新预测广播
func (b *Bot) formatNewForecastBroadcast(forecast database.Forecast) string {
	return fmt.Sprintf("🔮 Round `%s` forecast: *%s* `%s` (%d%%)",
		forecast.Period, forecast.PredictionCategory, forecast.Prediction, forecast.Confidence)
}

// formatResolvedBroadcast 结算广播
func (b *Bot) formatResolvedBroadcast(rounds []database.Forecast, stats database.Stats) string {
	var builder strings.Builder

	for _, round := range rounds {
		builder.WriteString(b.formatRoundLine(round))
		builder.WriteString("\n")
	}
	builder.WriteString(fmt.Sprintf("\n📊 Win Rate `%d%%` (%dW/%dL)", stats.WinRate, stats.TotalWins, stats.TotalLosses))

	return builder.String()
}
