package store

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fieldservice/jobvisit/internal/config"
)

var _ = Describe("db metrics", func() {
	It("counts operations by kind", func() {
		mi := &metricInterceptor{}
		before := testutil.ToFloat64(dbOpTotal.WithLabelValues("tx-commit"))

		mi.measure("tx-commit", "tx-commit", time.Now())
		mi.measure("tx-commit", "tx-commit", time.Now())

		Expect(testutil.ToFloat64(dbOpTotal.WithLabelValues("tx-commit"))).To(Equal(before + 2))
	})

	It("labels queries by their leading keyword", func() {
		Expect(queryVerb("SELECT * FROM jobs")).To(Equal("select"))
		Expect(queryVerb("  insert into jobs values (1)")).To(Equal("insert"))
		Expect(queryVerb("")).To(Equal("unknown"))
	})

	It("registers the wrapped driver once", func() {
		Expect(metricsDriver()).To(Equal(metricsDriverName))
		Expect(metricsDriver()).To(Equal(metricsDriverName))
	})
	It("builds the postgres dsn", func() {
		cfg := config.NewDefault()
		cfg.Database.Type = "pgsql"
		cfg.Database.Hostname = "db"
		cfg.Database.Port = "5432"
		cfg.Database.User = "u"
		cfg.Database.Password = "p"
		cfg.Database.Name = ""
		Expect(postgresDSN(cfg)).To(Equal("host=db port=5432 user=u password=p"))

		cfg.Database.Name = "jobvisit"
		Expect(postgresDSN(cfg)).To(HaveSuffix(" dbname=jobvisit"))
	})
})
