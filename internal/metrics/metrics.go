// Package metrics collects and exposes Prometheus metrics for the vault
// server.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	uploadBytes   prometheus.Counter
	downloadBytes prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_http_requests_total",
			Help: "HTTP requests by method, route pattern, and status code",
		}, []string{"method", "route", "status"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_login_success_total",
			Help: "Successful logins",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_login_failure_total",
			Help: "Failed logins",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_upload_bytes_total",
			Help: "Bytes accepted by uploads",
		}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_download_bytes_total",
			Help: "Bytes served by downloads",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.loginSuccess,
		c.loginFailure,
		c.uploadBytes,
		c.downloadBytes,
	)
	return c
}

// Handler returns the /metrics exposition handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordRequest(method, route string, statusCode int) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordLogin(success bool) {
	if success {
		c.loginSuccess.Inc()
	} else {
		c.loginFailure.Inc()
	}
}

func (c *Collector) RecordUploadBytes(n int64) {
	c.uploadBytes.Add(float64(n))
}

func (c *Collector) RecordDownloadBytes(n int64) {
	c.downloadBytes.Add(float64(n))
}
