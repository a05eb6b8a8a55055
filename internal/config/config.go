package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var validate = validator.New()

// Config 应用程序配置结构
type Config struct {
	Server    Server    `yaml:"server"`
	Feed      Feed      `yaml:"feed"`
	Model     Model     `yaml:"model"`
	Engine    Engine    `yaml:"engine"`
	Database  Database  `yaml:"database"`
	Telegram  Telegram  `yaml:"telegram"`
	Scheduler Scheduler `yaml:"scheduler"`
	App       App       `yaml:"app"`
}

// Server HTTP服务配置
type Server struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"4000" validate:"gte=1,lte=65535"`
	StaticDir       string        `yaml:"static_dir" default:"public"`
	CORS            bool          `yaml:"cors" default:"true"`
	APIPath         string        `yaml:"api_path" default:"/user/Game/api.php" validate:"required,startswith=/"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// Address 监听地址
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Feed 官方开奖记录接口配置
type Feed struct {
	BaseURL    string        `yaml:"base_url" default:"https://draw.ar-lottery06.com" validate:"required,url"`
	Lottery    string        `yaml:"lottery" default:"WinGo" validate:"required"`
	Game       string        `yaml:"game" default:"WinGo_30S" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
	UserAgent  string        `yaml:"user_agent" default:"Mozilla/5.0"`
	RetryCount int           `yaml:"retry_count" default:"2" validate:"gte=0"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"1s"`
}

// Model 评分模型配置
type Model struct {
	Path string `yaml:"path" default:"ai_predictor_model.json"`
}

// Engine 引擎容量配置
type Engine struct {
	LedgerCapacity  int `yaml:"ledger_capacity" default:"12" validate:"gte=1"`
	PendingCapacity int `yaml:"pending_capacity" default:"1000" validate:"gte=1"`
	Window          int `yaml:"window" default:"5" validate:"gte=1"`
}

// Database 数据库配置
type Database struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host" default:"127.0.0.1" validate:"required_if=Enabled true"`
	Port            int           `yaml:"port" default:"3306"`
	Username        string        `yaml:"username" default:"root" validate:"required_if=Enabled true"`
	Database        string        `yaml:"database" default:"shadex" validate:"required_if=Enabled true"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"1h"`
	RetentionHours  int           `yaml:"retention_hours" default:"24" validate:"gte=1"`
}

// Telegram Bot配置
type Telegram struct {
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" default:"60s"`
	ChatIDs []int64       `yaml:"chat_ids"`
}

// Enabled 是否启用Bot
func (t *Telegram) Enabled() bool {
	return t.Token != ""
}

// Scheduler 后台轮询配置
type Scheduler struct {
	PollSchedule string `yaml:"poll_schedule"`
}

// App 应用程序配置
type App struct {
	LogLevel  string `yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" default:"text" validate:"oneof=text json"`
}

// Default 仅包含默认值的配置
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return &cfg
}

// LoadConfig 加载配置文件；文件不存在时使用默认值，随后应用环境变量并校验
func LoadConfig(configPath string) (*Config, error) {
	// .env 文件可选
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv 环境变量覆盖
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		c.Feed.BaseURL = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	return nil
}

// GetDSN 获取数据库连接字符串
func (d *Database) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}
