package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
	"github.com/osr-alliance/backend-lead-tracker/internal/metrics"
)

// maxUpload caps the multipart form kept in memory; the rest spills to disk
const maxUpload = 32 << 20

type Config struct {
	Store    leads.Store
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics; nil = prometheus.DefaultGatherer
	Logger   *logrus.Entry
}

type Server struct {
	store    leads.Store
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *logrus.Entry
}

func New(conf *Config) *Server {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	g := conf.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		store:    conf.Store,
		metrics:  conf.Metrics,
		gatherer: g,
		log:      log.WithField("component", "http"),
	}
}

// Router wires every route behind the request id and instrumentation middleware
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestID, s.instrument)

	router.HandleFunc("/leads", s.listLeads).Methods(http.MethodGet)
	router.HandleFunc("/leads", s.createLead).Methods(http.MethodPost)
	router.HandleFunc("/leads/options", s.leadOptions).Methods(http.MethodGet)
	router.HandleFunc("/leads/export", s.exportLeads).Methods(http.MethodGet)
	router.HandleFunc("/leads/{id:[0-9]+}", s.getLead).Methods(http.MethodGet)
	router.HandleFunc("/leads/{id:[0-9]+}", s.updateLead).Methods(http.MethodPut)
	router.HandleFunc("/leads/{id:[0-9]+}", s.deleteLead).Methods(http.MethodDelete)
	router.HandleFunc("/leads/{id:[0-9]+}/status", s.updateStatus).Methods(http.MethodPatch)
	router.HandleFunc("/leads/{id:[0-9]+}/history", s.leadHistory).Methods(http.MethodGet)

	router.HandleFunc("/imports/template", s.importTemplate).Methods(http.MethodGet)
	router.HandleFunc("/imports/preview", s.previewImport).Methods(http.MethodPost)
	router.HandleFunc("/imports", s.runImport).Methods(http.MethodPost)

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logFrom(r.Context(), s.log).WithError(err).Error("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
