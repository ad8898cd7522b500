package metrics

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	FetchesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_fetches_total",
			Help: "Job list fetches by outcome (success, empty, error, stale).",
		},
		[]string{"result"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobboard_fetch_duration_seconds",
			Help:    "Duration of a list + suggestions refresh cycle in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
	MutationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_mutations_total",
			Help: "Job mutations by kind and outcome.",
		},
		[]string{"kind", "result"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobboard_active_sessions",
			Help: "Number of chat sessions currently held in memory.",
		},
	)
	BackendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobboard_backend_up",
			Help: "1 if the last backend health check succeeded, 0 otherwise.",
		},
	)
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(FetchesCounter)
		prometheus.MustRegister(FetchDuration)
		prometheus.MustRegister(MutationsCounter)
		prometheus.MustRegister(ActiveSessions)
		prometheus.MustRegister(BackendUp)
	})
}

func NewRouter() http.Handler {
	register()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func StartMetricsServer(address string) {
	router := NewRouter()
	go func() {
		log.Infof("metrics server listening on %v", address)
		log.Fatal(http.ListenAndServe(address, router))
	}()
}
