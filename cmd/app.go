package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shadex-ai/internal/api"
	"shadex-ai/internal/config"
	"shadex-ai/internal/database"
	"shadex-ai/internal/engine"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/metrics"
	"shadex-ai/internal/predictor"
	"shadex-ai/internal/scheduler"
	"shadex-ai/internal/server"
	"shadex-ai/internal/telegram"
)

// App 应用程序主结构
type App struct {
	config      *config.Config
	apiClient   *api.Client
	engine      *engine.Engine
	recorder    *metrics.Recorder
	mysql       *database.MySQLDB
	archiver    *database.Archiver
	telegramBot *telegram.Bot
	poller      *scheduler.Poller
	server      *server.Server

	// 控制通道
	stopChannel chan struct{}
	wg          sync.WaitGroup
	stopOnce    sync.Once
}

// NewApp 创建应用程序实例
func NewApp(cfg *config.Config) (*App, error) {
	// 初始化日志
	logger.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.Info("Starting Shadex AI backend...")

	apiClient := api.NewClient(&cfg.Feed)

	// 模型缺失或格式错误时关闭评分
	descriptor, err := predictor.LoadModelDescriptor(cfg.Model.Path)
	if err != nil {
		logger.Warnf("Scoring model disabled: %v", err)
		descriptor = nil
	}
	predictorMgr := predictor.NewPredictorManager(descriptor)

	recorder := metrics.NewRecorder()
	eng := engine.New(apiClient,
		engine.WithPredictor(predictorMgr),
		engine.WithLedgerCapacity(cfg.Engine.LedgerCapacity),
		engine.WithPendingCapacity(cfg.Engine.PendingCapacity),
		engine.WithStatsWindow(cfg.Engine.Window),
		engine.WithFetchTimeout(cfg.Feed.Timeout),
		engine.WithListener(engine.NewLogListener()),
		engine.WithListener(recorder),
	)

	app := &App{
		config:      cfg,
		apiClient:   apiClient,
		engine:      eng,
		recorder:    recorder,
		stopChannel: make(chan struct{}),
	}

	// 初始化归档数据库
	if cfg.Database.Enabled {
		mysql, err := database.NewMySQLDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		app.mysql = mysql
		app.archiver = database.NewArchiver(mysql)
		eng.AddListener(app.archiver)
		logger.Info("MySQL archive enabled")
	}

	// 初始化Telegram机器人
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(&cfg.Telegram, eng)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		app.telegramBot = bot
		eng.AddListener(bot)
	}

	// 初始化后台轮询
	if cfg.Scheduler.PollSchedule != "" {
		poller := scheduler.NewPoller(eng, 2*cfg.Feed.Timeout)
		if err := poller.Register(cfg.Scheduler.PollSchedule); err != nil {
			app.closeStores()
			return nil, err
		}
		app.poller = poller
	}

	app.server = server.NewServer(&cfg.Server, eng, recorder)

	logger.Info("Application initialized")
	return app, nil
}

// Start 启动应用程序
func (a *App) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Feed.Timeout)
	if err := a.apiClient.HealthCheck(ctx); err != nil {
		logger.Warnf("Feed not reachable at startup: %v", err)
	}
	cancel()

	if err := a.server.Start(); err != nil {
		return err
	}

	if a.telegramBot != nil {
		a.telegramBot.Start()
	}

	if a.poller != nil {
		a.poller.Start()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.poller.RunNow()
		}()
	}

	if a.mysql != nil {
		a.wg.Add(1)
		go a.dataCleanupLoop()
	}

	logger.Infof("All services started (api=%s, static=%s)", a.config.Server.APIPath, a.config.Server.StaticDir)
	return nil
}

// Stop 停止应用程序
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		logger.Info("Stopping application...")

		close(a.stopChannel)

		if a.poller != nil {
			a.poller.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		if err := a.server.Stop(ctx); err != nil {
			logger.Errorf("Failed to stop HTTP server: %v", err)
		}
		cancel()

		if a.telegramBot != nil {
			a.telegramBot.Stop()
		}

		a.wg.Wait()
		a.closeStores()

		logger.Info("Application stopped")
	})
}

func (a *App) closeStores() {
	if a.archiver != nil {
		a.archiver.Close()
	}
	if a.mysql != nil {
		if err := a.mysql.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}
}

// dataCleanupLoop 每小时清理过期归档
func (a *App) dataCleanupLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := a.mysql.CleanOldData(ctx, a.config.Database.RetentionHours)
			cancel()
			if err != nil {
				logger.Errorf("Failed to clean old data: %v", err)
			} else if removed > 0 {
				logger.Infof("Cleaned %d archived rounds", removed)
			}
		case <-a.stopChannel:
			return
		}
	}
}
