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

// SimulationHandler handles forward simulation HTTP requests
type SimulationHandler struct {
	simulationService *service.SimulationService
	logger            *zap.Logger
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(simulationService *service.SimulationService, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
		logger:            logger,
	}
}

// CreateSimulation handles running a new forward simulation
func (h *SimulationHandler) CreateSimulation(c *gin.Context) {
	var request model.SimulationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.simulationService.Run(c.Request.Context(), &request)
	if err != nil {
		h.logger.Error("Failed to run simulation",
			zap.Error(err),
			zap.String("strategy", request.Strategy.Name),
			zap.Int("numPaths", request.NumPaths))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// GetSimulation handles retrieving a stored simulation run by ID
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	run, err := h.simulationService.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get simulation run", zap.Error(err), zap.Int("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
		return
	}
	if run == nil || run.Kind != model.RunKindSimulation {
		c.JSON(http.StatusNotFound, gin.H{"error": "Simulation run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListSimulations handles listing stored simulation runs
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	runs, total, err := h.simulationService.List(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("Failed to list simulation runs", zap.Error(err))
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

// GetSimulationChart renders the quantile fan chart for a completed run
func (h *SimulationHandler) GetSimulationChart(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result := h.simulationService.Result(id)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No in-memory result for this run"})
		return
	}

	png, err := report.SimulationChart(result)
	if err != nil {
		h.logger.Error("Failed to render simulation chart", zap.Error(err), zap.Int("id", id))
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetSimulationMetrics returns on-demand metrics for a completed run
func (h *SimulationHandler) GetSimulationMetrics(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result := h.simulationService.Result(id)
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No in-memory result for this run"})
		return
	}

	alpha, err := strconv.ParseFloat(c.DefaultQuery("alpha", "0.95"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alpha"})
		return
	}

	varLoss, err := result.ValueAtRisk(alpha)
	if err != nil {
		writeError(c, err)
		return
	}
	cvarLoss, err := result.ConditionalValueAtRisk(alpha)
	if err != nil {
		writeError(c, err)
		return
	}
	drawdowns, err := result.DrawdownSummary()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alpha":                     alpha,
		"value_at_risk":             varLoss,
		"conditional_value_at_risk": cvarLoss,
		"drawdown":                  drawdowns,
		"mean_series":               result.MeanSeries(),
		"median_series":             result.MedianSeries(),
	})
}
