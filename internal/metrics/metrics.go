package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 审批链构建数
	chainsBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_chains_built_total",
			Help: "Total number of approval chains built",
		},
		[]string{"kind"}, // single, two_level, sequential, countersign
	)

	// 审批处理数
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Total number of approval resolutions",
		},
		[]string{"action", "kind"},
	)

	// 级联作废的审批数
	cancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "approvals_cancelled_total",
			Help: "Total number of sibling approvals cancelled by a rejection",
		},
	)

	// 审批状态分布
	approvalsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "approvals_by_status",
			Help: "Number of approvals by status",
		},
		[]string{"status"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(chainsBuiltTotal)
	prometheus.MustRegister(resolutionsTotal)
	prometheus.MustRegister(cancellationsTotal)
	prometheus.MustRegister(approvalsByStatus)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordChainBuilt 记录审批链构建
func RecordChainBuilt(kind string) {
	chainsBuiltTotal.WithLabelValues(kind).Inc()
}

// RecordResolution 记录审批处理
func RecordResolution(action, kind string) {
	resolutionsTotal.WithLabelValues(action, kind).Inc()
}

// RecordCancellations 记录级联作废的审批数
func RecordCancellations(count int) {
	if count > 0 {
		cancellationsTotal.Add(float64(count))
	}
}

// UpdateApprovalsByStatus 更新审批状态分布指标
func UpdateApprovalsByStatus(status string, count float64) {
	approvalsByStatus.WithLabelValues(status).Set(count)
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
