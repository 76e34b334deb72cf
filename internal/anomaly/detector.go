// Package anomaly flags unusual expenses with an isolation forest over
// engineered per-transaction features.
package anomaly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/dinero/internal/ml"
	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
)

// MinTrainingSamples is the smallest expense history the detector will
// train on.
const MinTrainingSamples = 30

// epsilon keeps the category z-score finite when a category has zero
// spread.
const epsilon = 1e-6

const numTrees = 100

// ErrInsufficientData means training was requested with too few expense
// transactions.
var ErrInsufficientData = errors.New("not enough expense transactions to train")

// Detector trains, persists, loads, and serves anomaly checks. Detection
// never fails outright: when no model can be produced it degrades to a
// non-anomalous result with an explanatory message.
type Detector struct {
	ledger    service.Ledger
	state     *modelState
	modelPath string
	mu        sync.Mutex
	// AutoTrain controls whether a detect call on an untrained model
	// may train synchronously after a failed load.
	AutoTrain bool
}

type modelState struct {
	Forest *ml.IsolationForest `json:"forest"`
	Scaler *ml.StandardScaler  `json:"scaler"`
}

var _ service.AnomalyChecker = (*Detector)(nil)

// NewDetector creates an untrained detector persisting its snapshot at
// modelPath.
func NewDetector(ledger service.Ledger, modelPath string) *Detector {
	return &Detector{
		ledger:    ledger,
		modelPath: modelPath,
		AutoTrain: true,
	}
}

// IsTrained reports whether a fitted model is available.
func (d *Detector) IsTrained() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state != nil
}

// TrainResult summarizes a training run over the full expense history.
type TrainResult struct {
	TotalSamples int     `json:"total_samples"`
	Flagged      int     `json:"flagged"`
	FlaggedPct   float64 `json:"flagged_pct"`
}

// Train fits a fresh model on every expense transaction in the ledger.
// It returns ErrInsufficientData below MinTrainingSamples. The per-
// category statistics behind the z-score feature are computed over the
// training set itself and frozen into the fitted model.
func (d *Detector) Train(ctx context.Context) (*TrainResult, error) {
	expenses, err := d.ledger.TransactionsByKind(ctx, model.KindExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	if len(expenses) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(expenses), MinTrainingSamples)
	}

	slog.Info("Training anomaly detector", "samples", len(expenses))

	baselines := trainingBaselines(expenses)
	samples := make([][]float64, len(expenses))
	for i, txn := range expenses {
		baseline := baselines[txn.Category]
		samples[i] = featureVector(txn.Amount, txn.Date, baseline.mean, baseline.std)
	}

	state := &modelState{Scaler: ml.NewStandardScaler()}
	if err := state.Scaler.Fit(samples); err != nil {
		return nil, fmt.Errorf("failed to fit scaler: %w", err)
	}
	scaled, err := state.Scaler.TransformBatch(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to scale training data: %w", err)
	}

	state.Forest = ml.NewIsolationForest(numTrees, ml.DefaultContamination, ml.DefaultSeed)
	if err := state.Forest.Fit(scaled); err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	flagged, err := state.Forest.CountOutliers(scaled)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}

	result := &TrainResult{
		TotalSamples: len(expenses),
		Flagged:      flagged,
		FlaggedPct:   round2(float64(flagged) / float64(len(expenses)) * 100),
	}

	d.mu.Lock()
	d.state = state
	d.mu.Unlock()

	if err := d.save(state); err != nil {
		slog.Error("Failed to persist detector snapshot", "path", d.modelPath, "error", err)
	}

	slog.Info("Anomaly detector trained",
		"samples", result.TotalSamples,
		"flagged", result.Flagged,
		"flagged_pct", result.FlaggedPct)

	return result, nil
}

// Result is the outcome of a single anomaly check.
type Result struct {
	Message      string  `json:"message"`
	Confidence   float64 `json:"confidence"`
	Score        float64 `json:"score"`
	CategoryMean float64 `json:"category_mean"`
	ZScore       float64 `json:"z_score"`
	IsAnomaly    bool    `json:"is_anomaly"`
}

// Detect classifies a candidate expense. A zero date means now. The
// category baseline in the result is recomputed live from the current
// expense history, independently of the statistics frozen at training
// time; the model judges feature combinations while the message cites
// current averages. Detect degrades instead of failing: an untrained
// detector that cannot load or train returns a non-anomalous result.
func (d *Detector) Detect(ctx context.Context, amount float64, category string, date time.Time) (*Result, error) {
	if !d.ensureTrained(ctx) {
		return &Result{Message: "Model unavailable: not enough transaction history to train"}, nil
	}

	if date.IsZero() {
		date = time.Now()
	}

	expenses, err := d.ledger.TransactionsByKind(ctx, model.KindExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history: %w", err)
	}

	var categoryAmounts []float64
	for _, txn := range expenses {
		if txn.Category == category {
			categoryAmounts = append(categoryAmounts, txn.Amount)
		}
	}
	if len(categoryAmounts) == 0 {
		return &Result{Message: fmt.Sprintf("No expense history for category %q", category)}, nil
	}

	mean := stat.Mean(categoryAmounts, nil)
	std := 1.0
	if len(categoryAmounts) > 1 {
		std = stat.PopStdDev(categoryAmounts, nil)
	}
	zScore := (amount - mean) / (std + epsilon)

	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	scaled, err := state.Scaler.Transform(featureVector(amount, date, mean, std))
	if err != nil {
		return nil, fmt.Errorf("failed to scale features: %w", err)
	}
	isAnomaly, score, err := state.Forest.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	return &Result{
		IsAnomaly:    isAnomaly,
		Confidence:   round2(math.Min(100, math.Max(0, math.Abs(score)*50))),
		Score:        round4(score),
		Message:      explain(isAnomaly, amount, mean),
		CategoryMean: round2(mean),
		ZScore:       round2(zScore),
	}, nil
}

// Historical re-runs detection over every expense in the trailing window
// and returns the flagged ones, newest first.
func (d *Detector) Historical(ctx context.Context, days int) ([]service.HistoricalAnomaly, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	txns, err := d.ledger.TransactionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}

	var anomalies []service.HistoricalAnomaly
	for _, txn := range txns {
		if !txn.IsExpense() {
			continue
		}
		result, err := d.Detect(ctx, txn.Amount, txn.Category, txn.Date)
		if err != nil {
			return nil, err
		}
		if !result.IsAnomaly {
			continue
		}
		anomalies = append(anomalies, service.HistoricalAnomaly{
			Date:       txn.Date,
			Category:   txn.Category,
			Amount:     txn.Amount,
			Memo:       txn.Memo,
			Confidence: result.Confidence,
			Message:    result.Message,
		})
	}
	return anomalies, nil
}

// Load restores the latest persisted snapshot, replacing any in-memory
// state.
func (d *Detector) Load() error {
	data, err := os.ReadFile(d.modelPath)
	if err != nil {
		return fmt.Errorf("failed to read detector snapshot: %w", err)
	}

	var state modelState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode detector snapshot: %w", err)
	}
	if state.Forest == nil || state.Scaler == nil {
		return fmt.Errorf("detector snapshot is incomplete")
	}

	d.mu.Lock()
	d.state = &state
	d.mu.Unlock()

	slog.Info("Anomaly detector loaded", "path", d.modelPath)
	return nil
}

func (d *Detector) ensureTrained(ctx context.Context) bool {
	if d.IsTrained() {
		return true
	}

	if err := d.Load(); err == nil {
		return true
	}

	if !d.AutoTrain {
		return false
	}

	slog.Warn("Detector not trained, training now")
	if _, err := d.Train(ctx); err != nil {
		slog.Error("Failed to train anomaly detector", "error", err)
		return false
	}
	return true
}

func (d *Detector) save(state *modelState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode detector snapshot: %w", err)
	}
	if err := os.WriteFile(d.modelPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write detector snapshot: %w", err)
	}
	return nil
}

func explain(isAnomaly bool, amount, mean float64) string {
	if !isAnomaly {
		return fmt.Sprintf("Expense within the normal range (average: $%.2f)", mean)
	}
	switch {
	case amount > mean*2:
		return fmt.Sprintf("Amount is %.1fx the category average of $%.2f", amount/mean, mean)
	case amount < mean*0.3:
		return fmt.Sprintf("Amount is far below the category average of $%.2f", mean)
	default:
		return "Unusual combination of expense characteristics"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
