package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shadex-ai/internal/config"
	"shadex-ai/internal/logger"

	_ "github.com/go-sql-driver/mysql"
)

// ArchivedRound 归档表中的一行
type ArchivedRound struct {
	ID                 int64
	Period             string
	Prediction         string
	PredictionCategory string
	Confidence         int
	Actual             sql.NullString
	ActualCategory     sql.NullString
	Status             string
	Color              sql.NullString
	CreatedAt          time.Time
	ResolvedAt         sql.NullTime
}

// MySQLDB MySQL数据库客户端
type MySQLDB struct {
	db *sql.DB
}

// NewMySQLDB 创建新的MySQL数据库连接
func NewMySQLDB(cfg *config.Database) (*MySQLDB, error) {
	db, err := sql.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	mysqlDB := &MySQLDB{db: db}
	if err := mysqlDB.createTablesIfNotExists(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mysqlDB, nil
}

// Close 关闭数据库连接
func (m *MySQLDB) Close() error {
	return m.db.Close()
}

// SaveForecast 保存新建的预测，已存在时忽略
func (m *MySQLDB) SaveForecast(ctx context.Context, forecast Forecast) error {
	query := `INSERT IGNORE INTO forecast_rounds
			  (period, prediction, prediction_category, confidence, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := m.db.ExecContext(ctx, query,
		forecast.Period, forecast.Prediction, string(forecast.PredictionCategory),
		forecast.Confidence, string(forecast.Status), createdAt(forecast))
	if err != nil {
		return fmt.Errorf("failed to save forecast %s: %w", forecast.Period, err)
	}

	logger.Debugf("Archived forecast: %s", forecast.Period)
	return nil
}

// SaveResolution 保存开奖结算结果
func (m *MySQLDB) SaveResolution(ctx context.Context, round Forecast) error {
	query := `INSERT INTO forecast_rounds
			  (period, prediction, prediction_category, confidence, actual, actual_category, status, color, created_at, resolved_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  actual = VALUES(actual),
			  actual_category = VALUES(actual_category),
			  status = VALUES(status),
			  color = VALUES(color),
			  resolved_at = VALUES(resolved_at)`

	resolvedAt := time.Now().UTC()
	if round.ResolvedAt != nil {
		resolvedAt = round.ResolvedAt.UTC()
	}

	_, err := m.db.ExecContext(ctx, query,
		round.Period, round.Prediction, string(round.PredictionCategory), round.Confidence,
		round.Actual, string(round.ActualCategory), string(round.Status), round.Color,
		createdAt(round), resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to save resolution %s: %w", round.Period, err)
	}

	logger.Debugf("Archived resolution: %s -> %s", round.Period, round.Status)
	return nil
}

// GetRecentRounds 获取最近归档的记录
func (m *MySQLDB) GetRecentRounds(ctx context.Context, limit int) ([]ArchivedRound, error) {
	query := `SELECT id, period, prediction, prediction_category, confidence, actual,
			  actual_category, status, color, created_at, resolved_at
			  FROM forecast_rounds
			  ORDER BY created_at DESC
			  LIMIT ?`

	rows, err := m.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent rounds: %w", err)
	}
	defer rows.Close()

	var rounds []ArchivedRound
	for rows.Next() {
		var r ArchivedRound
		err := rows.Scan(&r.ID, &r.Period, &r.Prediction, &r.PredictionCategory, &r.Confidence,
			&r.Actual, &r.ActualCategory, &r.Status, &r.Color, &r.CreatedAt, &r.ResolvedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, r)
	}

	return rounds, rows.Err()
}

// createTablesIfNotExists 自动创建表结构
func (m *MySQLDB) createTablesIfNotExists(ctx context.Context) error {
	createForecastRoundsTable := `CREATE TABLE IF NOT EXISTS forecast_rounds (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		period VARCHAR(40) UNIQUE NOT NULL COMMENT '期号',
		prediction VARCHAR(8) NOT NULL COMMENT '预测号码',
		prediction_category VARCHAR(10) NOT NULL COMMENT '预测大小',
		confidence INT NOT NULL COMMENT '置信度',
		actual VARCHAR(20) DEFAULT NULL COMMENT '开奖号码',
		actual_category VARCHAR(10) DEFAULT NULL COMMENT '开奖大小',
		status VARCHAR(10) NOT NULL COMMENT 'pending/win/loss',
		color VARCHAR(40) DEFAULT NULL COMMENT '颜色',
		created_at DATETIME NOT NULL COMMENT '预测时间',
		resolved_at DATETIME NULL COMMENT '结算时间',
		INDEX idx_status (status),
		INDEX idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='预测归档表'`

	if _, err := m.db.ExecContext(ctx, createForecastRoundsTable); err != nil {
		return fmt.Errorf("failed to create forecast_rounds table: %w", err)
	}
	return nil
}

// CleanOldData 清理超过保留时长的记录
func (m *MySQLDB) CleanOldData(ctx context.Context, retentionHours int) (int64, error) {
	result, err := m.db.ExecContext(ctx,
		"DELETE FROM forecast_rounds WHERE created_at < DATE_SUB(UTC_TIMESTAMP(), INTERVAL ? HOUR)",
		retentionHours)
	if err != nil {
		return 0, fmt.Errorf("failed to clean forecast rounds: %w", err)
	}

	removed, _ := result.RowsAffected()
	return removed, nil
}

func createdAt(f Forecast) time.Time {
	if f.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return f.CreatedAt.UTC()
}
