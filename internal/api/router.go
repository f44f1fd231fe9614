package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/bidback/backend/internal/api/handlers"
	"github.com/bidback/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// SSOT: routing lives in this function only.
func NewRouter(breadthHandler *handlers.BreadthHandler, positionHandler *handlers.PositionHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Breadth data
	api.HandleFunc("/breadth", breadthHandler.Save).Methods("POST")
	api.HandleFunc("/breadth/latest", breadthHandler.GetLatest).Methods("GET")
	api.HandleFunc("/breadth/history", breadthHandler.GetHistory).Methods("GET")
	api.HandleFunc("/breadth/quality", breadthHandler.GetQuality).Methods("GET")
	api.HandleFunc("/breadth/import", breadthHandler.ImportCSV).Methods("POST")
	api.HandleFunc("/breadth/export", breadthHandler.ExportCSV).Methods("GET")
	api.HandleFunc("/breadth/{date}", breadthHandler.GetByDate).Methods("GET")

	// Position sizing and exits
	api.HandleFunc("/position/calculate", positionHandler.Calculate).Methods("POST")
	api.HandleFunc("/exits/plan", positionHandler.PlanExit).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(rateLimitMiddleware(rate.Limit(50), 100))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "bidback-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies a process-wide token bucket. Imports of large
// historical files are the only heavy endpoint; the bucket is sized so normal
// interactive use never waits.
func rateLimitMiddleware(limit rate.Limit, burst int) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
