package handler

import (
	"net/http"

	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(c *gin.Context) error

// BalanceVerifier recomputes a user's balance from the ledger and compares
// it to the cached value
type BalanceVerifier func(c *gin.Context, userID string) (bool, error)

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	checkDB       HealthChecker
	verifyBalance BalanceVerifier
	logger        coreport.Logger
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(checkDB HealthChecker, verifyBalance BalanceVerifier, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{
		checkDB:       checkDB,
		verifyBalance: verifyBalance,
		logger:        logger,
	}
}

// Health handles the GET /health endpoint. Passing ?verify=<userId> runs the
// deep check: the user's cached balance is compared against the sum of their
// ledger entries.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.checkDB != nil {
		if err := h.checkDB(c); err != nil {
			h.logger.Error("Health check failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
	}

	if userID := c.Query("verify"); userID != "" && h.verifyBalance != nil {
		consistent, err := h.verifyBalance(c, userID)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"ledger": "unreachable",
			})
			return
		}
		if !consistent {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"ledger": "balance mismatch",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
