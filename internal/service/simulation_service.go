package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yourorg/portfolio-sim/internal/config"
	"github.com/yourorg/portfolio-sim/internal/engine"
	"github.com/yourorg/portfolio-sim/internal/kafka"
	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/repository"

	"go.uber.org/zap"
)

// SimulationService runs forward Monte Carlo simulations, persists their
// summaries and keeps completed result objects for series queries. Results
// are immutable, so the cache needs no synchronization beyond the map
// itself.
type SimulationService struct {
	runRepo  *repository.RunRepository
	producer *kafka.Producer
	topic    string
	limits   config.SimulationConfig
	logger   *zap.Logger

	mu      sync.RWMutex
	results map[int]*engine.SimulationResult
}

// NewSimulationService creates a new simulation service
func NewSimulationService(
	runRepo *repository.RunRepository,
	producer *kafka.Producer,
	topic string,
	limits config.SimulationConfig,
	logger *zap.Logger,
) *SimulationService {
	return &SimulationService{
		runRepo:  runRepo,
		producer: producer,
		topic:    topic,
		limits:   limits,
		logger:   logger,
		results:  make(map[int]*engine.SimulationResult),
	}
}

// Run validates the request, executes the forward engine and persists the
// outcome. The engine either completes or fails atomically; a failed run is
// recorded with its error message and no partial result is kept.
func (s *SimulationService) Run(ctx context.Context, request *model.SimulationRequest) (*model.Run, error) {
	if s.limits.MaxPaths > 0 && request.NumPaths > s.limits.MaxPaths {
		return nil, model.NewConfigurationError("num_paths", "exceeds service limit of %d", s.limits.MaxPaths)
	}
	if s.limits.MaxHorizon > 0 && request.HorizonYears > s.limits.MaxHorizon {
		return nil, model.NewConfigurationError("horizon_years", "exceeds service limit of %d years", s.limits.MaxHorizon)
	}

	eng, err := engine.NewForward(&request.SimulationConfig)
	if err != nil {
		return nil, err
	}
	if s.limits.Workers > 0 {
		eng.SetWorkers(s.limits.Workers)
	}

	configJSON, err := json.Marshal(request.SimulationConfig)
	if err != nil {
		return nil, err
	}
	name := request.Name
	if name == "" {
		name = request.Strategy.Name + " simulation"
	}

	run := &model.Run{
		Kind:   model.RunKindSimulation,
		Name:   name,
		Config: configJSON,
	}
	runID, err := s.runRepo.CreateRun(ctx, run)
	if err != nil {
		return nil, err
	}
	run.ID = runID

	result, err := eng.Run()
	if err != nil {
		if failErr := s.runRepo.FailRun(ctx, runID, err.Error()); failErr != nil {
			s.logger.Error("Failed to record run failure", zap.Error(failErr), zap.Int("runID", runID))
		}
		return nil, err
	}

	summary, err := simulationSummary(result)
	if err != nil {
		if failErr := s.runRepo.FailRun(ctx, runID, err.Error()); failErr != nil {
			s.logger.Error("Failed to record run failure", zap.Error(failErr), zap.Int("runID", runID))
		}
		return nil, err
	}

	if err := s.runRepo.CompleteRun(ctx, runID, summary); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.results[runID] = result
	s.mu.Unlock()

	s.publishCompleted(ctx, runID, model.RunKindSimulation, summary.TerminalMedian)

	now := time.Now()
	run.Status = model.RunStatusCompleted
	run.Summary = summary
	run.CompletedAt = &now
	return run, nil
}

// Get retrieves a stored run by ID
func (s *SimulationService) Get(ctx context.Context, id int) (*model.Run, error) {
	return s.runRepo.GetRun(ctx, id)
}

// List retrieves stored simulation runs with pagination
func (s *SimulationService) List(ctx context.Context, page, limit int) ([]model.Run, int, error) {
	return s.runRepo.ListRuns(ctx, model.RunKindSimulation, page, limit)
}

// Result returns the in-memory result object for a completed run, or nil if
// the run is unknown to this process.
func (s *SimulationService) Result(id int) *engine.SimulationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[id]
}

func (s *SimulationService) publishCompleted(ctx context.Context, runID int, kind model.RunKind, terminalMedian float64) {
	if s.producer == nil {
		return
	}
	event := kafka.RunCompletedEvent{
		RunID:          runID,
		Kind:           string(kind),
		Status:         model.RunStatusCompleted,
		TerminalMedian: terminalMedian,
		CompletedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.producer.Publish(ctx, s.topic, kafka.Message{Key: string(kind), Value: event}); err != nil {
		s.logger.Warn("Failed to publish run completed event", zap.Error(err), zap.Int("runID", runID))
	}
}

func simulationSummary(result *engine.SimulationResult) (*model.RunSummary, error) {
	median, err := result.Quantile(0.5)
	if err != nil {
		return nil, err
	}
	p10, err := result.Quantile(0.1)
	if err != nil {
		return nil, err
	}
	p90, err := result.Quantile(0.9)
	if err != nil {
		return nil, err
	}
	drawdowns, err := result.DrawdownSummary()
	if err != nil {
		return nil, err
	}

	summary := &model.RunSummary{
		TerminalMedian:   median,
		TerminalP10:      p10,
		TerminalP90:      p90,
		MaxDrawdownMean:  drawdowns.Mean,
		MaxDrawdownWorst: drawdowns.Worst,
		TotalContributed: result.TotalContributed(),
	}

	// Tail risk needs a capital basis; a zero-capital run simply reports
	// none.
	if v, err := result.ValueAtRisk(0.95); err == nil {
		summary.ValueAtRisk95 = &v
	}
	if cv, err := result.ConditionalValueAtRisk(0.95); err == nil {
		summary.ConditionalVaR95 = &cv
	}
	return summary, nil
}
