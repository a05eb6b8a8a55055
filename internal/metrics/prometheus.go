package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shadex-ai/internal/database"
)

const namespace = "shadex"

// Recorder 引擎和HTTP指标，使用独立的注册表
type Recorder struct {
	registry *prometheus.Registry

	forecastsCreated prometheus.Counter
	roundsResolved   *prometheus.CounterVec
	feedErrors       prometheus.Counter
	winRate          prometheus.Gauge
	totalWins        prometheus.Gauge
	totalLosses      prometheus.Gauge
	actionRequests   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewRecorder 创建指标记录器
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		forecastsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_created_total",
			Help:      "Number of upcoming-round forecasts created",
		}),
		roundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_resolved_total",
			Help:      "Number of rounds reconciled against the feed",
		}, []string{"status"}),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      "Number of failed feed fetches",
		}),
		winRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "win_rate_percent",
			Help:      "Current win rate",
		}),
		totalWins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wins",
			Help:      "Total resolved wins",
		}),
		totalLosses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "losses",
			Help:      "Total resolved losses",
		}),
		actionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_requests_total",
			Help:      "API requests by action and response status",
		}, []string{"action", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}

	r.registry.MustRegister(
		r.forecastsCreated,
		r.roundsResolved,
		r.feedErrors,
		r.winRate,
		r.totalWins,
		r.totalLosses,
		r.actionRequests,
		r.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// OnForecastCreated 新预测
func (r *Recorder) OnForecastCreated(_ database.Forecast) {
	r.forecastsCreated.Inc()
}

// OnRoundsResolved 结算结果和统计
func (r *Recorder) OnRoundsResolved(rounds []database.Forecast, stats database.Stats) {
	for _, round := range rounds {
		r.roundsResolved.WithLabelValues(string(round.Status)).Inc()
	}
	r.winRate.Set(float64(stats.WinRate))
	r.totalWins.Set(float64(stats.TotalWins))
	r.totalLosses.Set(float64(stats.TotalLosses))
}

// OnFeedError 获取开奖记录失败
func (r *Recorder) OnFeedError(_ error) {
	r.feedErrors.Inc()
}

// RecordAction 记录一次 action 请求
func (r *Recorder) RecordAction(action, status string) {
	if action == "" {
		action = "none"
	}
	r.actionRequests.WithLabelValues(action, status).Inc()
}

// RecordRequest 记录HTTP请求耗时，route 应为路由模板以控制基数
func (r *Recorder) RecordRequest(route, method string, status int, latency time.Duration) {
	r.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Handler 指标抓取接口
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry 底层注册表
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
