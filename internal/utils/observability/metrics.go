package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/asgarovf/smart-wallet/internal/utils"
)

// Use registers request metrics for router under the name prefix.
func Use(router *gin.Engine, name string, reg prometheus.Registerer) {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: name + "_requests_total",
		Help: "The total number of HTTP requests by path, method and status.",
	}, []string{"path", "method", "status"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name + "_request_duration_seconds",
		Help:    "The HTTP request latency by path and method.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"path", "method"})
	factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: name + "_build_info",
		Help: "Build version and commit of the running binary.",
	}, []string{"version", "commit"}).WithLabelValues(utils.Version, utils.Commit).Set(1)

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		requests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		duration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	})
}

// Server starts the metrics server on the given address, with pprof and the probes.
func Server(c *cli.Context, ready ReadyChecker) {
	if !c.Bool(utils.MetricsEnabled.Name) {
		return
	}

	r := gin.New()
	r.Use(gin.Recovery())
	pprof.Register(r)
	r.GET("/metrics", func(context *gin.Context) {
		promhttp.Handler().ServeHTTP(context.Writer, context.Request)
	})

	probeController := NewProbesController(ready)
	r.GET("/health", probeController.HealthCheck)
	r.GET("/ready", probeController.Ready)

	address := fmt.Sprintf("%s:%s", c.String(utils.MetricsAddr.Name), c.String(utils.MetricsPort.Name))
	server := &http.Server{
		Addr:              address,
		Handler:           r,
		ReadHeaderTimeout: time.Minute,
	}

	go func() {
		if runServerErr := server.ListenAndServe(); runServerErr != nil && !errors.Is(runServerErr, http.ErrServerClosed) {
			log.Crit("run metrics http server failure", "error", runServerErr)
		}
	}()
	log.Info("Metrics server started", "address", address)
}
