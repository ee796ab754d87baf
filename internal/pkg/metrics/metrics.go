// Package metrics holds the Prometheus collectors for the API. A nil
// *Metrics is valid and records nothing, so services can be built without one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	usersRegistered prometheus.Counter
	listingsCreated prometheus.Counter
	listingsSold    *prometheus.CounterVec
	offers          *prometheus.CounterVec
	reviewsCreated  prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Accounts created.",
		}),
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Listings created.",
		}),
		listingsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_sold_total",
			Help:      "Listings marked sold, split by on-platform or external buyer.",
		}, []string{"buyer"}),
		offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_total",
			Help:      "Offer messages by type.",
		}, []string{"type"}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_created_total",
			Help:      "Reviews submitted.",
		}),
	}
	m.Registry.MustRegister(
		m.requests,
		m.latency,
		m.usersRegistered,
		m.listingsCreated,
		m.listingsSold,
		m.offers,
		m.reviewsCreated,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.usersRegistered.Inc()
	}
}

func (m *Metrics) ListingCreated() {
	if m != nil {
		m.listingsCreated.Inc()
	}
}

func (m *Metrics) ListingSold(external bool) {
	if m == nil {
		return
	}
	buyer := "platform"
	if external {
		buyer = "external"
	}
	m.listingsSold.WithLabelValues(buyer).Inc()
}

func (m *Metrics) Offer(kind string) {
	if m != nil {
		m.offers.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ReviewCreated() {
	if m != nil {
		m.reviewsCreated.Inc()
	}
}
