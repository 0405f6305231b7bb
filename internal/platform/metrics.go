package platform

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgbridge",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed, labeled by method and route.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "msgbridge",
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of request durations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	MarshalTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgbridge",
		Name:      "marshal_total",
		Help:      "Values converted into message instances, labeled by type and result.",
	}, []string{"type", "result"})

	PublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgbridge",
		Name:      "published_total",
		Help:      "Messages published to the bus, labeled by type.",
	}, []string{"type"})

	DeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgbridge",
		Name:      "delivered_total",
		Help:      "Messages handed to subscribers, labeled by type and result.",
	}, []string{"type", "result"})

	registerOnce sync.Once
)

// InitMetrics registers core metrics collectors with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal, HTTPDuration, MarshalTotal, PublishedTotal, DeliveredTotal)
	})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
