package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router) {
	r.Use(requestLogger)
	r.Use(singleWriter(&sync.Mutex{}))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		log.WithFields(log.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request served")
	})
}

// singleWriter serialises requests. The services below assume a single
// writer and hold no locks of their own.
func singleWriter(mu *sync.Mutex) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			next.ServeHTTP(w, req)
		})
	}
}
