package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo, dbPoolConns, catalogCacheTotal) }

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "content_commerce_build_info",
			Help: "Constant 1, labeled with the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)

	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // total|idle|acquired|max
	)

	catalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Redis catalog cache lookups by entity and result.",
		},
		[]string{"entity", "result"}, // result: hit|miss|error
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

// DBPoolStats mirrors the pgxpool counters this service exports.
type DBPoolStats struct {
	Total, Idle, Acquired, Max int32
}

func SetDBPoolStats(s DBPoolStats) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
}

func IncCacheRequest(entity, result string) {
	catalogCacheTotal.WithLabelValues(norm(entity), norm(result)).Inc()
}
