package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ordersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	orderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_failures_total",
			Help: "Total number of rejected or failed order placements",
		},
		[]string{"reason"},
	)

	visitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workshop_visit_requests_total",
			Help: "Workshop visit requests by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(ordersCreatedTotal)
	prometheus.MustRegister(orderFailuresTotal)
	prometheus.MustRegister(visitRequestsTotal)
}

// Instrument records metrics and a server span for one route. route is the
// router pattern, which keeps label cardinality bounded.
func Instrument(route string, next httprouter.Handle) httprouter.Handle {
	tracer := otel.Tracer("kondapalli/http")
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		rec := newStatusRecorder(w)
		next(rec, r.WithContext(ctx), ps)

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

func RecordOrderCreated() {
	ordersCreatedTotal.Inc()
}

func RecordOrderFailure(reason string) {
	orderFailuresTotal.WithLabelValues(reason).Inc()
}

func RecordVisitRequest(outcome string) {
	visitRequestsTotal.WithLabelValues(outcome).Inc()
}
