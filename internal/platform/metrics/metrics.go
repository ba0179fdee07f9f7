package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// ClientRequestsTotal：对短链服务发出的请求数（Counter）。
	//
	// labels：
	// - op：create / stats
	// - status：HTTP 状态码字符串；网络失败记为 "error"
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_client_requests_total",
			Help: "Requests sent to the shortening service.",
		},
		[]string{"op", "status"},
	)

	// ClientRequestDurationSeconds：单次往返耗时分布（Histogram）。
	ClientRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlink_client_request_duration_seconds",
			Help:    "Round trip latency to the shortening service.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// ShortLinksCreated：成功创建的短链，按过期策略区分（permanent / custom）。
	ShortLinksCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_created_total",
			Help: "Short links created, by expiration label.",
		},
		[]string{"expiration"},
	)

	// HistorySize：当前历史记录条数（Gauge），上限为容量。
	HistorySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlink_history_size",
			Help: "Records currently held in the local history.",
		},
	)

	// HistoryEvictions：因容量溢出被丢弃的记录数。
	HistoryEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_history_evictions_total",
			Help: "Records dropped from history because of the capacity bound.",
		},
	)

	// HistoryCorrupt：加载时发现存储内容损坏的次数（损坏按空历史处理，不报错）。
	HistoryCorrupt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_history_corrupt_total",
			Help: "History loads that found unreadable stored data.",
		},
	)

	// CacheOperations：统计查询的本地缓存命中情况。
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_cache_operations_total",
			Help: "Stats cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ClientRequestsTotal,
			ClientRequestDurationSeconds,
			ShortLinksCreated,
			HistorySize,
			HistoryEvictions,
			HistoryCorrupt,
			CacheOperations,
		)
	})
}

// Push 把默认 registry 推到 Pushgateway。
// CLI 进程很短，等不到 Prometheus 来拉，所以退出前推一次。
func Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
