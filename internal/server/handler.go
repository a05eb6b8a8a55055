package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"shadex-ai/internal/database"
	"shadex-ai/internal/engine"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/metrics"
)

// Action 名称
const (
	ActionGetPrediction = "getPrediction"
	ActionGetStats      = "getStats"
	ActionDeleteItem    = "deleteItem"
	ActionDeleteAll     = "deleteAll"
)

const statusRequestFailed = "Request Failed"

// ForecastService 引擎对外提供的操作
type ForecastService interface {
	NextForecast(ctx context.Context) engine.Result
	Stats() database.Stats
	Ledger() []database.Forecast
	DeleteAt(index int) []database.Forecast
	Clear() []database.Forecast
	PendingCount() int
	PredictorName() string
}

// ActionRequest 接口请求体，支持JSON和表单
type ActionRequest struct {
	Action string        `json:"action" form:"action" validate:"required,oneof=getPrediction getStats deleteItem deleteAll"`
	Mode   string        `json:"mode" form:"mode"`
	Index  database.Text `json:"index" form:"index" default:"0"`
}

// IndexValue index 兼容数字和数字字符串
func (r *ActionRequest) IndexValue() (int, error) {
	index, err := strconv.Atoi(r.Index.String())
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", r.Index.String())
	}
	return index, nil
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatsResponse getStats 响应
type StatsResponse struct {
	Status string `json:"status"`
	database.Stats
}

// LedgerResponse 删除操作响应
type LedgerResponse struct {
	Status             string              `json:"status"`
	Success            bool                `json:"success"`
	PendingPredictions []database.Forecast `json:"pendingPredictions"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Ledger  int    `json:"ledger"`
	Pending int    `json:"pending"`
	Scoring string `json:"scoring"`
}

// Handler 接口处理器
type Handler struct {
	service  ForecastService
	recorder *metrics.Recorder
	validate *validator.Validate
}

// NewHandler 创建接口处理器
func NewHandler(service ForecastService, recorder *metrics.Recorder) *Handler {
	return &Handler{
		service:  service,
		recorder: recorder,
		validate: validator.New(),
	}
}

// Action 按 action 分发请求
func (h *Handler) Action(c echo.Context) error {
	var req ActionRequest
	if err := h.bind(c, &req); err != nil {
		logger.Debugf("Rejected API request: %v", err)
		h.record(req.Action, statusRequestFailed)
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  statusRequestFailed,
			Message: "Unknown action",
		})
	}

	logger.Debugf("API request action=%s mode=%s", req.Action, req.Mode)

	switch req.Action {
	case ActionGetPrediction:
		result := h.service.NextForecast(c.Request().Context())
		h.record(req.Action, string(result.Status))
		return c.JSON(http.StatusOK, result.Response())

	case ActionGetStats:
		h.record(req.Action, "OK")
		return c.JSON(http.StatusOK, StatsResponse{Status: "OK", Stats: h.service.Stats()})

	case ActionDeleteItem:
		index, err := req.IndexValue()
		if err != nil {
			logger.Debugf("Rejected API request: %v", err)
			h.record(req.Action, statusRequestFailed)
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Status:  statusRequestFailed,
				Message: "Invalid index",
			})
		}
		h.record(req.Action, "OK")
		return c.JSON(http.StatusOK, LedgerResponse{
			Status:             "OK",
			Success:            true,
			PendingPredictions: h.service.DeleteAt(index),
		})

	default:
		h.record(req.Action, "OK")
		return c.JSON(http.StatusOK, LedgerResponse{
			Status:             "OK",
			Success:            true,
			PendingPredictions: h.service.Clear(),
		})
	}
}

// Health 健康检查
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Ledger:  len(h.service.Ledger()),
		Pending: h.service.PendingCount(),
		Scoring: h.service.PredictorName(),
	})
}

func (h *Handler) bind(c echo.Context, req *ActionRequest) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := defaults.Set(req); err != nil {
		return err
	}
	if err := h.validate.StructCtx(c.Request().Context(), req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return validationErrors
		}
		return err
	}
	return nil
}

func (h *Handler) record(action, status string) {
	if h.recorder != nil {
		h.recorder.RecordAction(action, status)
	}
}
