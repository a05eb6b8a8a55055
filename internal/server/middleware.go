package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"shadex-ai/internal/logger"
	"shadex-ai/internal/metrics"
)

// NormalizePath 将请求路径中的反斜杠替换为斜杠
func NormalizePath() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if strings.Contains(req.URL.Path, `\`) {
				req.URL.Path = strings.ReplaceAll(req.URL.Path, `\`, "/")
				req.URL.RawPath = ""
			}
			return next(c)
		}
	}
}

// Recover 捕获处理器中的 panic 并返回 500
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"panic": fmt.Sprint(r),
						"uri":   c.Request().RequestURI,
					}).Errorf("Handler panic recovered\n%s", debug.Stack())

					err = c.JSON(http.StatusInternalServerError, ErrorResponse{
						Status:  "Error",
						Message: "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}

// RequestLogging 记录请求日志和耗时指标
func RequestLogging(recorder *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			logger.WithFields(logrus.Fields{
				"method":  req.Method,
				"uri":     req.RequestURI,
				"status":  status,
				"latency": latency.String(),
				"remote":  c.RealIP(),
			}).Info("HTTP request")

			if recorder != nil {
				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				recorder.RecordRequest(route, req.Method, status, latency)
			}
			return nil
		}
	}
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultCORSConfig 允许任意来源
var DefaultCORSConfig = CORSConfig{
	AllowOrigin: "*",
	AllowMethods: []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	},
	AllowHeaders: []string{
		echo.HeaderOrigin,
		echo.HeaderXRequestedWith,
		echo.HeaderContentType,
		echo.HeaderAccept,
		echo.HeaderAuthorization,
	},
	MaxAge: 86400,
}

// CORS 设置跨域头，预检请求直接返回 204
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			h.Set(echo.HeaderAccessControlMaxAge, maxAge)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
