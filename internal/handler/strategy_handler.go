package handler

import (
	"net/http"

	"github.com/yourorg/portfolio-sim/internal/strategy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StrategyHandler exposes the strategy registry
type StrategyHandler struct {
	logger *zap.Logger
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(logger *zap.Logger) *StrategyHandler {
	return &StrategyHandler{logger: logger}
}

// ListStrategies returns all registered strategy names
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategy.Names()})
}
