package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shadex-ai/internal/config"
	"shadex-ai/internal/database"
	"shadex-ai/internal/engine"
	"shadex-ai/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const commandTimeout = 15 * time.Second

// ForecastService Bot使用的引擎操作
type ForecastService interface {
	NextForecast(ctx context.Context) engine.Result
	Stats() database.Stats
	Ledger() []database.Forecast
}

// Sender 消息发送接口
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot Telegram机器人
type Bot struct {
	api           *tgbotapi.BotAPI
	sender        Sender
	service       ForecastService
	chatIDs       []int64
	updateChannel tgbotapi.UpdatesChannel
	stopChannel   chan struct{}
	wg            sync.WaitGroup
}

// NewBot 创建新的Telegram机器人
func NewBot(cfg *config.Telegram, service ForecastService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api.Debug = false
	logger.Infof("Telegram bot authorized on account: %s", api.Self.UserName)

	// 配置更新
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(cfg.Timeout.Seconds())

	bot := newBot(api, service, cfg.ChatIDs)
	bot.api = api
	bot.updateChannel = api.GetUpdatesChan(u)
	return bot, nil
}

func newBot(sender Sender, service ForecastService, chatIDs []int64) *Bot {
	return &Bot{
		sender:      sender,
		service:     service,
		chatIDs:     chatIDs,
		stopChannel: make(chan struct{}),
	}
}

// Start 启动机器人
func (b *Bot) Start() {
	logger.Info("Starting Telegram bot...")

	b.wg.Add(1)
	go b.handleUpdates()
	logger.Info("Telegram bot started successfully")
}

// Stop 停止机器人
func (b *Bot) Stop() {
	logger.Info("Stopping Telegram bot...")
	close(b.stopChannel)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	b.wg.Wait()
	logger.Info("Telegram bot stopped")
}

// handleUpdates 处理更新
func (b *Bot) handleUpdates() {
	defer b.wg.Done()

	for {
		select {
		case update, ok := <-b.updateChannel:
			if !ok {
				return
			}
			// 只处理私聊消息，忽略群组消息
			if update.Message != nil && update.Message.Chat.IsPrivate() {
				b.wg.Add(1)
				go func(message *tgbotapi.Message) {
					defer b.wg.Done()
					b.handleMessage(message)
				}(update.Message)
			}
		case <-b.stopChannel:
			return
		}
	}
}

// handleMessage 处理消息
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	var command string
	if message.IsCommand() {
		command = message.Command()
	} else {
		command = keywordCommand(message.Text)
	}

	logger.Debugf("Received private command: %q from user: %d", command, chatID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	b.sendMessage(chatID, b.commandReply(ctx, command))
}

// commandReply 生成命令回复
func (b *Bot) commandReply(ctx context.Context, command string) string {
	switch command {
	case "start":
		return welcomeText
	case "help":
		return helpText
	case "forecast":
		return b.formatForecastMessage(b.service.NextForecast(ctx))
	case "stats":
		return b.formatStatsMessage(b.service.Stats())
	case "history":
		return b.formatHistoryMessage(b.service.Ledger())
	case "":
		return "Please use commands or keywords, type /help for help."
	default:
		return "Unknown command. Type /help to view available commands."
	}
}

// keywordCommand 文本关键字映射到命令
func keywordCommand(text string) string {
	switch text {
	case "预测", "forecast":
		return "forecast"
	case "历史", "历史记录", "history":
		return "history"
	case "统计", "准确率", "stats":
		return "stats"
	default:
		return ""
	}
}

// sendMessage 发送消息
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.sender.Send(msg); err != nil {
		logger.Errorf("Failed to send message to chat %d: %v", chatID, err)
	}
}

// broadcast 发送给所有订阅的会话
func (b *Bot) broadcast(text string) {
	for _, chatID := range b.chatIDs {
		b.sendMessage(chatID, text)
	}
	logger.Debugf("Broadcasted message to %d chats", len(b.chatIDs))
}

// OnForecastCreated 广播新预测
func (b *Bot) OnForecastCreated(forecast database.Forecast) {
	if len(b.chatIDs) == 0 {
		return
	}
	go b.broadcast(b.formatNewForecastBroadcast(forecast))
}

// OnRoundsResolved 广播开奖结算
func (b *Bot) OnRoundsResolved(rounds []database.Forecast, stats database.Stats) {
	if len(b.chatIDs) == 0 || len(rounds) == 0 {
		return
	}
	go b.broadcast(b.formatResolvedBroadcast(rounds, stats))
}

// OnFeedError Bot不广播接口错误
func (b *Bot) OnFeedError(error) {}

// GetBotInfo 获取机器人信息
func (b *Bot) GetBotInfo() map[string]interface{} {
	if b.api == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"username": b.api.Self.UserName,
		"id":       b.api.Self.ID,
		"is_bot":   b.api.Self.IsBot,
		"chats":    len(b.chatIDs),
	}
}
