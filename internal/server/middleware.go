package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// logFrom returns the request scoped logger, or fallback outside a request
func logFrom(ctx context.Context, fallback *logrus.Entry) *logrus.Entry {
	if l, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return l
	}
	return fallback
}

// requestID keeps an incoming X-Request-Id or makes one, echoes it and tags the request logger with it
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		l := s.log.WithField("request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, l)))
	})
}

// instrument records the request in prometheus under its route template and logs it
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		handler := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				handler = tpl
			}
		}

		took := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(handler, r.Method, wrapped.statusCode, took)
		}

		logFrom(r.Context(), s.log).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": took.String(),
		}).Debug("request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
