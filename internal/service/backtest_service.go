package service

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/yourorg/portfolio-sim/internal/client"
	"github.com/yourorg/portfolio-sim/internal/engine"
	"github.com/yourorg/portfolio-sim/internal/kafka"
	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/pricedata"
	"github.com/yourorg/portfolio-sim/internal/repository"

	"go.uber.org/zap"
)

// BacktestService replays historical prices through the backtest engine. The
// price table comes inline with the request, from a server-side CSV file, or
// from the market data source.
type BacktestService struct {
	runRepo    *repository.RunRepository
	marketData *client.MarketDataClient
	producer   *kafka.Producer
	topic      string
	logger     *zap.Logger

	mu      sync.RWMutex
	results map[int]*engine.BacktestResult
}

// NewBacktestService creates a new backtest service
func NewBacktestService(
	runRepo *repository.RunRepository,
	marketData *client.MarketDataClient,
	producer *kafka.Producer,
	topic string,
	logger *zap.Logger,
) *BacktestService {
	return &BacktestService{
		runRepo:    runRepo,
		marketData: marketData,
		producer:   producer,
		topic:      topic,
		logger:     logger,
		results:    make(map[int]*engine.BacktestResult),
	}
}

// Run validates the request, resolves the price table, replays it and
// persists the outcome.
func (s *BacktestService) Run(ctx context.Context, request *model.BacktestRequest) (*model.Run, error) {
	eng, err := engine.NewBacktest(&request.BacktestConfig)
	if err != nil {
		return nil, err
	}

	table, err := s.resolvePrices(ctx, request)
	if err != nil {
		return nil, err
	}

	configJSON, err := json.Marshal(request.BacktestConfig)
	if err != nil {
		return nil, err
	}
	name := request.Name
	if name == "" {
		name = request.Strategy.Name + " backtest"
	}

	run := &model.Run{
		Kind:   model.RunKindBacktest,
		Name:   name,
		Config: configJSON,
	}
	runID, err := s.runRepo.CreateRun(ctx, run)
	if err != nil {
		return nil, err
	}
	run.ID = runID

	result, err := eng.Run(table)
	if err != nil {
		if failErr := s.runRepo.FailRun(ctx, runID, err.Error()); failErr != nil {
			s.logger.Error("Failed to record run failure", zap.Error(failErr), zap.Int("runID", runID))
		}
		return nil, err
	}

	summary, err := backtestSummary(result)
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

	s.publishCompleted(ctx, runID, summary.TerminalMedian)

	now := time.Now()
	run.Status = model.RunStatusCompleted
	run.Summary = summary
	run.CompletedAt = &now
	return run, nil
}

// Get retrieves a stored run by ID
func (s *BacktestService) Get(ctx context.Context, id int) (*model.Run, error) {
	return s.runRepo.GetRun(ctx, id)
}

// List retrieves stored backtest runs with pagination
func (s *BacktestService) List(ctx context.Context, page, limit int) ([]model.Run, int, error) {
	return s.runRepo.ListRuns(ctx, model.RunKindBacktest, page, limit)
}

// Result returns the in-memory result object for a completed run, or nil if
// the run is unknown to this process.
func (s *BacktestService) Result(id int) *engine.BacktestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[id]
}

func (s *BacktestService) resolvePrices(ctx context.Context, request *model.BacktestRequest) (*model.PriceTable, error) {
	if request.Prices != nil {
		return request.Prices.Table()
	}
	if request.CSVPath != "" {
		return pricedata.LoadCSV(request.CSVPath)
	}
	if s.marketData == nil {
		return nil, model.NewDataError("prices", "no price source: supply inline prices, a csv_path, or configure market data")
	}
	names := make([]string, len(request.Assets))
	for i, a := range request.Assets {
		names[i] = a.Name
	}
	return s.marketData.GetPriceTable(ctx, names, request.Window)
}

func (s *BacktestService) publishCompleted(ctx context.Context, runID int, terminal float64) {
	if s.producer == nil {
		return
	}
	event := kafka.RunCompletedEvent{
		RunID:          runID,
		Kind:           string(model.RunKindBacktest),
		Status:         model.RunStatusCompleted,
		TerminalMedian: terminal,
		CompletedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.producer.Publish(ctx, s.topic, kafka.Message{Key: string(model.RunKindBacktest), Value: event}); err != nil {
		s.logger.Warn("Failed to publish run completed event", zap.Error(err), zap.Int("runID", runID))
	}
}

func backtestSummary(result *engine.BacktestResult) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		TerminalMedian:   result.TerminalValue(),
		TerminalP10:      result.TerminalValue(),
		TerminalP90:      result.TerminalValue(),
		MaxDrawdownMean:  result.MaxDrawdown(),
		MaxDrawdownWorst: result.MaxDrawdown(),
		TotalContributed: result.TotalContributed(),
	}

	if total, err := result.TotalReturn(); err == nil {
		summary.TotalReturn = &total
	}
	if ann, err := result.AnnualizedReturn(); err == nil {
		summary.AnnualizedReturn = &ann
	}
	vol := result.RealizedVolatility()
	summary.RealizedVolatility = &vol

	// Sharpe only exists when the caller supplied a risk-free rate; a
	// degenerate (zero variance) series keeps the summary field empty and
	// leaves the explicit accessor to report the condition. Infinities are
	// not representable in the stored JSON summary.
	if result.Config().RiskFreeRate != nil {
		if sharpe, err := result.SharpeRatio(); err == nil && !math.IsInf(sharpe, 0) {
			summary.SharpeRatio = &sharpe
		}
	}
	return summary, nil
}
