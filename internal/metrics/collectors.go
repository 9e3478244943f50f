package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"mentor/pkg/logger"
)

// CustomCollector exposes gauge metrics computed from the database on scrape
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	totalUsers      *prometheus.Desc
	totalTrades     *prometheus.Desc
	trades24h       *prometheus.Desc
	activeSessions  *prometheus.Desc
	reportsGenerated *prometheus.Desc
}

// NewCustomCollector creates a collector backed by the postgres pool
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB) *CustomCollector {
	return &CustomCollector{
		log:      log,
		postgres: postgres,

		totalUsers: prometheus.NewDesc(
			"mentor_total_users",
			"Total number of fully registered users",
			nil, nil,
		),
		totalTrades: prometheus.NewDesc(
			"mentor_total_trades",
			"Total number of journaled trades",
			nil, nil,
		),
		trades24h: prometheus.NewDesc(
			"mentor_trades_24h",
			"Trades journaled in the last 24 hours",
			nil, nil,
		),
		activeSessions: prometheus.NewDesc(
			"mentor_active_therapy_sessions",
			"Currently open therapy sessions",
			nil, nil,
		),
		reportsGenerated: prometheus.NewDesc(
			"mentor_weekly_reports_total",
			"Total number of generated weekly reports",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalUsers
	ch <- c.totalTrades
	ch <- c.trades24h
	ch <- c.activeSessions
	ch <- c.reportsGenerated
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectCount(ctx, ch, c.totalUsers,
		"SELECT COUNT(*) FROM users WHERE registration_complete = TRUE")
	c.collectCount(ctx, ch, c.totalTrades,
		"SELECT COUNT(*) FROM trades")
	c.collectCount(ctx, ch, c.trades24h,
		"SELECT COUNT(*) FROM trades WHERE created_at > NOW() - INTERVAL '24 hours'")
	c.collectCount(ctx, ch, c.activeSessions,
		"SELECT COUNT(*) FROM therapy_sessions WHERE ended_at IS NULL")
	c.collectCount(ctx, ch, c.reportsGenerated,
		"SELECT COUNT(*) FROM weekly_reports")
}

func (c *CustomCollector) collectCount(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, query string) {
	var count float64
	if err := c.postgres.GetContext(ctx, &count, query); err != nil {
		c.log.Debugw("Metric query failed", "query", query, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, count)
}
