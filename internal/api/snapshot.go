package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"shadex-ai/internal/database"
)

// Snapshot 开奖记录快照文件
type Snapshot struct {
	FetchedAt   string                  `json:"fetchedAt"`
	Lottery     string                  `json:"lottery"`
	Game        string                  `json:"game"`
	Code        database.Text           `json:"code"`
	Msg         string                  `json:"msg"`
	ServiceTime database.Text           `json:"serviceTime"`
	Entries     []database.HistoryEntry `json:"entries"`
}

// BuildSnapshot 根据响应构建快照，limit <= 0 时保留全部记录
func BuildSnapshot(resp *database.HistoryResponse, lottery, game string, limit int, fetchedAt time.Time) Snapshot {
	entries := resp.Data.List
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []database.HistoryEntry{}
	}

	return Snapshot{
		FetchedAt:   fetchedAt.UTC().Format(time.RFC3339),
		Lottery:     lottery,
		Game:        game,
		Code:        resp.Code,
		Msg:         resp.Msg,
		ServiceTime: resp.ServiceTime,
		Entries:     entries,
	}
}

// WriteSnapshot 写入缩进格式的JSON文件
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// FetchSnapshot 带重试获取并写入快照，返回写入的记录数
func (c *Client) FetchSnapshot(ctx context.Context, path string, limit int) (int, error) {
	resp, err := c.FetchWithRetry(ctx)
	if err != nil {
		return 0, err
	}

	snapshot := BuildSnapshot(resp, c.lottery, c.game, limit, c.now())
	if err := WriteSnapshot(path, snapshot); err != nil {
		return 0, err
	}
	return len(snapshot.Entries), nil
}
