package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Handler serves liveness and readiness probes.
type Handler struct {
	db      *gorm.DB
	service string
	checks  map[string]Check
}

// NewHandler creates a health handler. The database is always checked for readiness.
func NewHandler(db *gorm.DB, service string) *Handler {
	return &Handler{db: db, service: service, checks: make(map[string]Check)}
}

// AddCheck registers an additional readiness check.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// RegisterRoutes mounts /health and /ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
}

// Live always reports ok while the process serves requests.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready verifies every dependency.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks)+1)
	healthy := true

	if h.db != nil {
		results["database"] = "ok"
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			results["database"] = err.Error()
			healthy = false
		}
	}
	for name, check := range h.checks {
		results[name] = "ok"
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": results})
}
