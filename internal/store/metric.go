package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/ngrok/sqlmw"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsDriverName = "pgx-metrics"

var (
	opRegex     = regexp.MustCompile(`^\w+`)
	dbOpLatency *prometheus.HistogramVec
	dbOpTotal   *prometheus.CounterVec

	registerDriverOnce sync.Once
)

// metricsDriver returns the name of the pgx driver wrapped with the
// operation metrics. Registration happens once per process.
func metricsDriver() string {
	registerDriverOnce.Do(func() {
		sql.Register(metricsDriverName, sqlmw.Driver(stdlib.GetDefaultDriver(), &metricInterceptor{}))
	})
	return metricsDriverName
}

type metricInterceptor struct {
	sqlmw.NullInterceptor
}

func init() {
	dbOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "db_op_duration_milliseconds",
		Help:      "Time spent on a database operation",
		Subsystem: "jobvisit",
		Buckets:   []float64{100, 300, 500, 1000, 5000},
	},
		[]string{"op", "method"},
	)
	dbOpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "db_op_total",
		Help:      "Number of database operations",
		Subsystem: "jobvisit",
	},
		[]string{"op"},
	)

	prometheus.MustRegister(dbOpLatency)
	prometheus.MustRegister(dbOpTotal)
}

func (mi *metricInterceptor) ConnBeginTx(ctx context.Context, conn driver.ConnBeginTx, opts driver.TxOptions) (context.Context, driver.Tx, error) {
	defer mi.measure("conn-begin-tx", "begin", time.Now())

	tx, err := conn.BeginTx(ctx, opts)
	return ctx, tx, err
}

func (mi *metricInterceptor) ConnExecContext(ctx context.Context, conn driver.ExecerContext, query string, args []driver.NamedValue) (driver.Result, error) {
	defer mi.measure("conn-exec-context", queryVerb(query), time.Now())

	return conn.ExecContext(ctx, query, args)
}

func (mi *metricInterceptor) ConnQueryContext(ctx context.Context, conn driver.QueryerContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	defer mi.measure("conn-query-context", queryVerb(query), time.Now())

	rows, err := conn.QueryContext(ctx, query, args)
	return ctx, rows, err
}

func (mi *metricInterceptor) StmtExecContext(ctx context.Context, conn driver.StmtExecContext, query string, args []driver.NamedValue) (driver.Result, error) {
	defer mi.measure("stmt-exec-context", queryVerb(query), time.Now())

	return conn.ExecContext(ctx, args)
}

func (mi *metricInterceptor) StmtQueryContext(ctx context.Context, conn driver.StmtQueryContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	defer mi.measure("stmt-query-context", queryVerb(query), time.Now())

	rows, err := conn.QueryContext(ctx, args)
	return ctx, rows, err
}

func (mi *metricInterceptor) TxCommit(ctx context.Context, conn driver.Tx) error {
	defer mi.measure("tx-commit", "commit", time.Now())
	return conn.Commit()
}

func (mi *metricInterceptor) TxRollback(ctx context.Context, conn driver.Tx) error {
	defer mi.measure("tx-rollback", "rollback", time.Now())
	return conn.Rollback()
}

func (mi *metricInterceptor) measure(op, method string, start time.Time) {
	dbOpTotal.WithLabelValues(op).Inc()
	dbOpLatency.WithLabelValues(op, method).Observe(float64(time.Since(start).Milliseconds()))
}

// queryVerb returns the leading SQL keyword, lower-cased: select, insert...
func queryVerb(query string) string {
	verb := opRegex.FindString(strings.TrimSpace(query))
	if verb == "" {
		return "unknown"
	}
	return strings.ToLower(verb)
}
