package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

var (
	// CredentialRefreshes counts assume-role driven credential refreshes.
	CredentialRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perfsage_credential_refreshes_total",
		Help: "Number of delegated credential refreshes performed.",
	})

	// ExpiredTokenRecoveries counts store operations retried after an
	// expired-token failure.
	ExpiredTokenRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perfsage_expired_token_recoveries_total",
		Help: "Number of store operations recovered via credential refresh.",
	})

	// Analyses counts analysis requests by outcome.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perfsage_analyses_total",
		Help: "Number of upload analyses by status.",
	}, []string{"status"})

	// QuotaRejections counts uploads rejected for exhausted quota.
	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perfsage_quota_rejections_total",
		Help: "Number of uploads rejected because the quota was exhausted.",
	})

	// TotalUsers exposes the last analytics snapshot of distinct users.
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perfsage_total_users",
		Help: "Distinct users seen in the usage table.",
	})

	// TotalUploads exposes the last analytics snapshot of completed uploads.
	TotalUploads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perfsage_total_uploads",
		Help: "Distinct completed analyses recorded in the usage table.",
	})

	// TotalTokens exposes the last analytics snapshot of tokens consumed.
	TotalTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perfsage_total_tokens",
		Help: "Total completion tokens recorded in the usage table.",
	})
)
