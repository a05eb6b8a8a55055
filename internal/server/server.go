package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"shadex-ai/internal/config"
	"shadex-ai/internal/logger"
	"shadex-ai/internal/metrics"
)

// Server HTTP服务
type Server struct {
	echo   *echo.Echo
	config *config.Server
}

// NewServer 创建HTTP服务；接口路由优先于静态文件
func NewServer(cfg *config.Server, service ForecastService, recorder *metrics.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(NormalizePath())
	e.Use(RequestLogging(recorder))
	e.Use(Recover())
	if cfg.CORS {
		e.Use(CORS(DefaultCORSConfig))
	}

	handler := NewHandler(service, recorder)
	e.POST(cfg.APIPath, handler.Action)
	e.GET("/healthz", handler.Health)
	if recorder != nil {
		e.GET("/metrics", echo.WrapHandler(recorder.Handler()))
	}

	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	return &Server{
		echo:   e,
		config: cfg,
	}
}

// Start 在后台启动HTTP服务
func (s *Server) Start() error {
	addr := s.config.Address()

	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop 优雅关闭HTTP服务
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("HTTP server stopped gracefully")
	return nil
}

// Echo 底层 Echo 实例
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// errorHandler 未匹配的路由返回JSON格式的404
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	req := c.Request()
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	var body ErrorResponse
	switch code {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = http.StatusNotFound
		body = ErrorResponse{
			Status:  "Not Found",
			Message: fmt.Sprintf("Route not found: %s %s", req.Method, req.URL.RequestURI()),
		}
	case http.StatusInternalServerError:
		logger.Errorf("Request %s %s failed: %v", req.Method, req.URL.Path, err)
		body = ErrorResponse{Status: "Error", Message: "Internal Server Error"}
	default:
		body = ErrorResponse{Status: statusRequestFailed, Message: http.StatusText(code)}
	}

	if req.Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logger.Errorf("Failed to write error response: %v", err)
	}
}
