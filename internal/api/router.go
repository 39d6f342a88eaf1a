package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-research/internal/api/handlers"
	"github.com/wonny/aegis-research/pkg/logger"
	"github.com/wonny/aegis-research/pkg/redis"
)

// RouterDeps holds everything the router wires
type RouterDeps struct {
	Research    *handlers.ResearchHandler
	Jobs        *handlers.JobsHandler // optional
	RateLimiter *redis.RateLimiter
	RatePerSec  float64
	RateBurst   int
	Logger      *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger.WithComponent("http")
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimitMiddleware(deps.RatePerSec, deps.RateBurst))

	api.HandleFunc("/industries", deps.Research.GetIndustries).Methods("GET")
	api.HandleFunc("/columns", deps.Research.GetColumns).Methods("GET")
	if deps.Jobs != nil {
		api.HandleFunc("/jobs", deps.Jobs.GetJobs).Methods("GET")
	}

	// 결과 조회는 인스턴스 간 공유 한도 적용
	results := api.PathPrefix("/results").Subrouter()
	if deps.RateLimiter != nil {
		results.Use(sharedLimitMiddleware(deps.RateLimiter, redis.ResultsRateLimit, log))
	}
	results.HandleFunc("", deps.Research.GetResults).Methods("GET")
	results.HandleFunc("/latest", deps.Research.GetLatest).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "aegis-research-api",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					respondError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
