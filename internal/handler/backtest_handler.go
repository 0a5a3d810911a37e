package handler

import (
	"net/http"
	"strconv"

	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/report"
	"github.com/yourorg/portfolio-sim/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BacktestHandler handles backtest HTTP requests
type BacktestHandler struct {
	backtestService *service.BacktestService
	logger          *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(backtestService *service.BacktestService, logger *zap.Logger) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
		logger:          logger,
	}
}

// CreateBacktest handles running a new backtest
func (h *BacktestHandler) CreateBacktest(c *gin.Context) {
	var request model.BacktestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.backtestService.Run(c.Request.Context(), &request)
	if err != nil {
		h.logger.Error("Failed to run backtest",
			zap.Error(err),
			zap.String("strategy", request.Strategy.Name))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// GetBacktest handles retrieving a stored backtest run by ID
func (h *BacktestHandler) GetBacktest(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	run, err := h.backtestService.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get backtest run", zap.Error(err), zap.Int("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
		return
	}
	if run == nil || run.Kind != model.RunKindBacktest {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backtest run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListBacktests handles listing stored backtest runs
func (h *BacktestHandler) ListBacktests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	runs, total, err := h.backtestService.List(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("Failed to list backtest runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs": runs,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetBacktestChart renders the value series chart for a completed run
func (h *BacktestHandler) GetBacktestChart(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result := h.backtestService.Result(id)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No in-memory result for this run"})
		return
	}

	png, err := report.BacktestChart(result)
	if err != nil {
		h.logger.Error("Failed to render backtest chart", zap.Error(err), zap.Int("id", id))
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetBacktestMetrics returns on-demand metrics for a completed run
func (h *BacktestHandler) GetBacktestMetrics(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result := h.backtestService.Result(id)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No in-memory result for this run"})
		return
	}

	payload := gin.H{
		"max_drawdown":        result.MaxDrawdown(),
		"realized_volatility": result.RealizedVolatility(),
		"value_series":        result.ValueSeries(),
		"return_series":       result.ReturnSeries(),
	}

	if total, err := result.TotalReturn(); err == nil {
		payload["total_return"] = total
	}
	if c.Query("sharpe") == "true" {
		sharpe, err := result.SharpeRatio()
		if err != nil {
			writeError(c, err)
			return
		}
		payload["sharpe_ratio"] = sharpe
	}

	c.JSON(http.StatusOK, payload)
}
