package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapechat/store"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// Health returns a handler for GET /api/v1/health.
//
// Degrades status when the store is unreachable; the process can still
// answer scrape-free questions in that state.
func Health(st *store.Postgres, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if st != nil {
			if err := st.Ping(c.Request.Context()); err != nil {
				status = "degraded"
			}
		}
		c.JSON(http.StatusOK, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: "0.1.0",
		})
	}
}
