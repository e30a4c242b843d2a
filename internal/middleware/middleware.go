package middleware

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tcstacks/crosscsp/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authClient"
)

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth is a middleware that requires a valid JWT token
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			if err == auth.ErrTokenExpired {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(AuthUserKey, claims)
		c.Next()
	}
}

// OptionalAuth is a middleware that validates a JWT token if present
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			claims, err := m.authService.ValidateToken(token)
			if err == nil {
				c.Set(AuthUserKey, claims)
			}
		}
		c.Next()
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// GetAuthUser retrieves the authenticated user from the context
func GetAuthUser(c *gin.Context) *auth.Claims {
	claims, exists := c.Get(AuthUserKey)
	if !exists {
		return nil
	}
	return claims.(*auth.Claims)
}

// CORS middleware
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SolveMetrics holds aggregate statistics about completed solve jobs,
// broken down by their final status (solved/failed/timed_out).
type SolveMetrics struct {
	mu            sync.RWMutex
	totalJobs     int64
	totalDuration time.Duration
	byStatus      map[string]*StatusMetrics
}

// StatusMetrics holds solve-duration statistics for jobs that ended in
// one particular status.
type StatusMetrics struct {
	Count       int64
	TotalTime   time.Duration
	MinTime     time.Duration
	MaxTime     time.Duration
	P95Time     time.Duration
	recentTimes []time.Duration
}

var globalMetrics = &SolveMetrics{
	byStatus: make(map[string]*StatusMetrics),
}

// PerformanceMonitor logs slow HTTP requests and stamps a response-time
// header. It carries no job-domain knowledge of its own — a completed
// solve's duration and outcome is recorded separately via
// RecordSolveOutcome once the job actually finishes, since that can
// happen long after the request that submitted it has returned.
func PerformanceMonitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start)

		// Skip health check and WebSocket endpoints from logging
		if path != "/health" && !strings.HasSuffix(path, "/ws") {
			// Log slow requests (>200ms)
			threshold := 200 * time.Millisecond
			if duration > threshold {
				log.Printf("[SLOW] %s %s - %v (status: %d)",
					c.Request.Method, path, duration, c.Writer.Status())
			}
		}

		// Add performance headers
		c.Header("X-Response-Time", duration.String())
	}
}

// RecordSolveOutcome records one completed job's final status and
// wall-clock solve duration. Called by the HTTP handler once a job's
// goroutine finishes, so the metrics this package exposes track the
// actual crossword-solve workload instead of generic request counts.
func RecordSolveOutcome(status string, duration time.Duration) {
	globalMetrics.record(status, duration)
}

func (pm *SolveMetrics) record(status string, duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.totalJobs++
	pm.totalDuration += duration

	metrics, exists := pm.byStatus[status]
	if !exists {
		metrics = &StatusMetrics{
			MinTime:     duration,
			MaxTime:     duration,
			recentTimes: make([]time.Duration, 0, 100),
		}
		pm.byStatus[status] = metrics
	}

	metrics.Count++
	metrics.TotalTime += duration

	if duration < metrics.MinTime {
		metrics.MinTime = duration
	}
	if duration > metrics.MaxTime {
		metrics.MaxTime = duration
	}

	// Keep last 100 jobs of this status for P95 calculation
	metrics.recentTimes = append(metrics.recentTimes, duration)
	if len(metrics.recentTimes) > 100 {
		metrics.recentTimes = metrics.recentTimes[1:]
	}

	// Calculate P95 from recent times
	if len(metrics.recentTimes) > 0 {
		sorted := make([]time.Duration, len(metrics.recentTimes))
		copy(sorted, metrics.recentTimes)
		// Simple sort for P95 calculation
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[i] > sorted[j] {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
		p95Index := int(float64(len(sorted)) * 0.95)
		if p95Index >= len(sorted) {
			p95Index = len(sorted) - 1
		}
		metrics.P95Time = sorted[p95Index]
	}
}

// GetMetrics returns current solve metrics, broken down by job status.
func GetMetrics() map[string]interface{} {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	statuses := make(map[string]interface{})
	for status, metrics := range globalMetrics.byStatus {
		avgTime := time.Duration(0)
		if metrics.Count > 0 {
			avgTime = metrics.TotalTime / time.Duration(metrics.Count)
		}

		statuses[status] = map[string]interface{}{
			"count":  metrics.Count,
			"avg_ms": avgTime.Milliseconds(),
			"min_ms": metrics.MinTime.Milliseconds(),
			"max_ms": metrics.MaxTime.Milliseconds(),
			"p95_ms": metrics.P95Time.Milliseconds(),
		}
	}

	avgDuration := time.Duration(0)
	if globalMetrics.totalJobs > 0 {
		avgDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.totalJobs)
	}

	return map[string]interface{}{
		"total_jobs":   globalMetrics.totalJobs,
		"avg_solve_ms": avgDuration.Milliseconds(),
		"by_status":    statuses,
	}
}
