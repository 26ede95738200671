package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger abstrae el chequeo de conectividad del pool de base de datos.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reporta el estado del servicio y de su base de datos.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Check maneja GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	resp := healthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = "database not configured"
	} else if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = "database unreachable"
	}

	c.JSON(http.StatusOK, resp)
}
