package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shadex-ai/internal/config"
	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
)

// ErrFeedStatus 官方接口返回非200状态
var ErrFeedStatus = errors.New("unexpected feed status")

// Client 官方开奖记录客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	lottery    string
	game       string
	userAgent  string
	retryCount int
	retryDelay time.Duration
	now        func() time.Time
}

// NewClient 创建新的API客户端
func NewClient(cfg *config.Feed) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		lottery:    cfg.Lottery,
		game:       cfg.Game,
		userAgent:  cfg.UserAgent,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		now:        time.Now,
	}
}

// WithGame 返回指定彩种和玩法的客户端副本
func (c *Client) WithGame(lottery, game string) *Client {
	clone := *c
	if lottery != "" {
		clone.lottery = lottery
	}
	if game != "" {
		clone.game = game
	}
	return &clone
}

// HistoryURL 带时间戳防缓存参数的请求地址
func (c *Client) HistoryURL() string {
	return fmt.Sprintf("%s/%s/%s/GetHistoryIssuePage.json?ts=%s",
		c.baseURL, c.lottery, c.game, strconv.FormatInt(c.now().UnixMilli(), 10))
}

// FetchHistory 单次获取开奖列表（最新在前）
func (c *Client) FetchHistory(ctx context.Context) ([]database.HistoryEntry, error) {
	resp, err := c.FetchHistoryPage(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Data.List, nil
}

// FetchHistoryPage 单次获取完整响应，不重试
func (c *Client) FetchHistoryPage(ctx context.Context) (*database.HistoryResponse, error) {
	return c.makeRequest(ctx, c.HistoryURL())
}

// FetchWithRetry 获取完整响应，失败时按配置重试
func (c *Client) FetchWithRetry(ctx context.Context) (*database.HistoryResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			logger.Warnf("Feed request retry attempt %d/%d", attempt, c.retryCount)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.FetchHistoryPage(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("failed to fetch history after %d attempts: %w", c.retryCount+1, lastErr)
}

// makeRequest 执行HTTP请求
func (c *Client) makeRequest(ctx context.Context, url string) (*database.HistoryResponse, error) {
	logger.Debugf("Making feed request to: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrFeedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var historyResponse database.HistoryResponse
	if err := json.Unmarshal(body, &historyResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	logger.Debugf("Feed request successful, got %d records", len(historyResponse.Data.List))
	return &historyResponse, nil
}

// HealthCheck 检查官方接口健康状态
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.FetchHistoryPage(ctx); err != nil {
		return fmt.Errorf("feed health check failed: %w", err)
	}

	logger.Debug("Feed health check passed")
	return nil
}

// GetAPIStats 获取客户端配置信息
func (c *Client) GetAPIStats() map[string]interface{} {
	return map[string]interface{}{
		"base_url":    c.baseURL,
		"lottery":     c.lottery,
		"game":        c.game,
		"timeout":     c.httpClient.Timeout.String(),
		"retry_count": c.retryCount,
		"retry_delay": c.retryDelay.String(),
	}
}
