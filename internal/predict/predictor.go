// Package predict implements the supervised expense predictor: a
// random-forest regression over engineered temporal and categorical
// features of historical expenses.
package predict

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

	"github.com/Veraticus/dinero/internal/ml"
	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
)

// MinTrainingSamples is the smallest expense history the predictor will
// train on.
const MinTrainingSamples = 50

// MonthlyTransactionEstimate approximates how many expense transactions
// a category accrues per month. The monthly forecast multiplies a single
// representative prediction by this count; it is a deliberate coarse
// heuristic, not a monthly-aggregate model.
const MonthlyTransactionEstimate = 20

// Model shape, matching the original training configuration.
const (
	numTrees     = 100
	maxDepth     = 10
	testFraction = 0.2
)

// Predictor errors.
var (
	// ErrInsufficientData means training was requested with too few
	// expense transactions.
	ErrInsufficientData = errors.New("not enough expense transactions to train")
	// ErrUnknownCategory means a category, subcategory, or payment
	// method was never seen during training. The input is invalid;
	// retraining on the same data will not help.
	ErrUnknownCategory = errors.New("value not seen during training")
	// ErrNotTrained means no model is available and auto-training was
	// disabled or failed.
	ErrNotTrained = errors.New("predictor is not trained")
)

// Predictor trains, persists, loads, and serves expense predictions.
// The fitted model and its encoders are swapped as a unit on retrain.
type Predictor struct {
	ledger    service.Ledger
	state     *modelState
	modelPath string
	mu        sync.Mutex
	// AutoTrain controls whether a predict call on an untrained model
	// may train synchronously after a failed load.
	AutoTrain bool
}

// modelState is the unit of model replacement: estimator plus fitted
// preprocessing. A reader never observes a partially updated state.
type modelState struct {
	Forest         *ml.RandomForest `json:"forest"`
	Categories     *ml.LabelEncoder `json:"categories"`
	Subcategories  *ml.LabelEncoder `json:"subcategories"`
	PaymentMethods *ml.LabelEncoder `json:"payment_methods"`
	FeatureColumns []string         `json:"feature_columns"`
}

// NewPredictor creates an untrained predictor persisting its snapshot at
// modelPath.
func NewPredictor(ledger service.Ledger, modelPath string) *Predictor {
	return &Predictor{
		ledger:    ledger,
		modelPath: modelPath,
		AutoTrain: true,
	}
}

// IsTrained reports whether a fitted model is available.
func (p *Predictor) IsTrained() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != nil
}

// TrainResult reports the held-out evaluation of a training run.
type TrainResult struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	R2           float64 `json:"r2"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Train fits a fresh model on every expense transaction in the ledger.
// It returns ErrInsufficientData below MinTrainingSamples. Encoders are
// refit from scratch, so label codes are not stable across retrains.
func (p *Predictor) Train(ctx context.Context) (*TrainResult, error) {
	expenses, err := p.ledger.TransactionsByKind(ctx, model.KindExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	if len(expenses) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(expenses), MinTrainingSamples)
	}

	slog.Info("Training expense predictor", "samples", len(expenses))

	state := &modelState{
		Categories:     ml.NewLabelEncoder(),
		Subcategories:  ml.NewLabelEncoder(),
		PaymentMethods: ml.NewLabelEncoder(),
		FeatureColumns: featureColumns,
	}

	categories := make([]string, len(expenses))
	subcategories := make([]string, len(expenses))
	methods := make([]string, len(expenses))
	for i, txn := range expenses {
		categories[i] = txn.Category
		subcategories[i] = orNone(txn.Subcategory)
		methods[i] = txn.PaymentMethod
	}
	state.Categories.Fit(categories)
	state.Subcategories.Fit(subcategories)
	state.PaymentMethods.Fit(methods)

	samples := make([][]float64, len(expenses))
	targets := make([]float64, len(expenses))
	for i, txn := range expenses {
		catCode, _ := state.Categories.Transform(categories[i])
		subCode, _ := state.Subcategories.Transform(subcategories[i])
		methodCode, _ := state.PaymentMethods.Transform(methods[i])
		samples[i] = featureVector(txn.Date, txn.IsRecurring, catCode, subCode, methodCode)
		targets[i] = txn.Amount
	}

	trainX, testX, trainY, testY := ml.TrainTestSplit(samples, targets, testFraction, ml.DefaultSeed)

	state.Forest = ml.NewRandomForest(numTrees, maxDepth, ml.DefaultSeed)
	if err := state.Forest.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	predicted, err := state.Forest.PredictBatch(testX)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}

	result := &TrainResult{
		MAE:          round2(ml.MAE(testY, predicted)),
		RMSE:         round2(ml.RMSE(testY, predicted)),
		R2:           round3(ml.R2(testY, predicted)),
		TrainSamples: len(trainX),
		TestSamples:  len(testX),
	}

	// Swap in the new state as a unit, then persist. A save failure
	// keeps the in-memory model usable.
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	if err := p.save(state); err != nil {
		slog.Error("Failed to persist predictor snapshot", "path", p.modelPath, "error", err)
	}

	slog.Info("Expense predictor trained",
		"mae", result.MAE,
		"rmse", result.RMSE,
		"r2", result.R2,
		"train_samples", result.TrainSamples,
		"test_samples", result.TestSamples)

	return result, nil
}

// Request describes a single expense to predict.
type Request struct {
	Date          time.Time
	Category      string
	Subcategory   string
	PaymentMethod string
	IsRecurring   bool
}

// PredictExpense predicts the amount of a single expense. On an
// untrained predictor it first tries to load a snapshot, then trains
// synchronously when AutoTrain allows it. Unknown vocabulary yields
// ErrUnknownCategory; the prediction is clamped to be non-negative and
// rounded to 2 decimals.
func (p *Predictor) PredictExpense(ctx context.Context, req Request) (float64, error) {
	if err := p.ensureTrained(ctx); err != nil {
		return 0, err
	}

	if req.Date.IsZero() {
		req.Date = time.Now()
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "Efectivo"
	}

	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	catCode, err := state.Categories.Transform(req.Category)
	if err != nil {
		return 0, fmt.Errorf("%w: category %q", ErrUnknownCategory, req.Category)
	}
	subCode, err := state.Subcategories.Transform(orNone(req.Subcategory))
	if err != nil {
		return 0, fmt.Errorf("%w: subcategory %q", ErrUnknownCategory, req.Subcategory)
	}
	methodCode, err := state.PaymentMethods.Transform(req.PaymentMethod)
	if err != nil {
		return 0, fmt.Errorf("%w: payment method %q", ErrUnknownCategory, req.PaymentMethod)
	}

	predicted, err := state.Forest.Predict(featureVector(req.Date, req.IsRecurring, catCode, subCode, methodCode))
	if err != nil {
		return 0, fmt.Errorf("prediction failed: %w", err)
	}

	return round2(math.Max(0, predicted)), nil
}

// MonthForecast is the projected spend of one calendar month.
type MonthForecast struct {
	ByCategory map[string]float64 `json:"by_category"`
	Total      float64            `json:"total"`
	Month      int                `json:"month"`
	Year       int                `json:"year"`
}

// PredictMonth forecasts per-category totals for a month. Zero month and
// year target the next calendar month. Each category total is the
// prediction for day 15 of the target month times
// MonthlyTransactionEstimate.
func (p *Predictor) PredictMonth(ctx context.Context, month, year int) (*MonthForecast, error) {
	now := time.Now()
	if month == 0 {
		if now.Month() == time.December {
			month, year = 1, now.Year()+1
		} else {
			month, year = int(now.Month())+1, now.Year()
		}
	}
	if year == 0 {
		year = now.Year()
	}

	expenses, err := p.ledger.TransactionsByKind(ctx, model.KindExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history: %w", err)
	}

	seen := make(map[string]struct{})
	var categories []string
	for _, txn := range expenses {
		if _, ok := seen[txn.Category]; !ok {
			seen[txn.Category] = struct{}{}
			categories = append(categories, txn.Category)
		}
	}

	forecast := &MonthForecast{
		ByCategory: make(map[string]float64),
		Month:      month,
		Year:       year,
	}

	representative := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.Local)
	var total float64
	for _, category := range categories {
		predicted, err := p.PredictExpense(ctx, Request{Category: category, Date: representative})
		if err != nil {
			if errors.Is(err, ErrUnknownCategory) {
				continue
			}
			return nil, err
		}
		if predicted <= 0 {
			continue
		}
		monthly := predicted * MonthlyTransactionEstimate
		forecast.ByCategory[category] = round2(monthly)
		total += monthly
	}
	forecast.Total = round2(total)

	return forecast, nil
}

// Load restores the latest persisted snapshot, replacing any in-memory
// state.
func (p *Predictor) Load() error {
	data, err := os.ReadFile(p.modelPath)
	if err != nil {
		return fmt.Errorf("failed to read predictor snapshot: %w", err)
	}

	var state modelState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode predictor snapshot: %w", err)
	}
	if state.Forest == nil {
		return fmt.Errorf("predictor snapshot has no model")
	}

	p.mu.Lock()
	p.state = &state
	p.mu.Unlock()

	slog.Info("Expense predictor loaded", "path", p.modelPath)
	return nil
}

// ensureTrained makes a model available: already trained, loadable from
// the snapshot, or trainable when AutoTrain is set.
func (p *Predictor) ensureTrained(ctx context.Context) error {
	if p.IsTrained() {
		return nil
	}

	if err := p.Load(); err == nil {
		return nil
	}

	if !p.AutoTrain {
		return ErrNotTrained
	}

	slog.Warn("Predictor not trained, training now")
	if _, err := p.Train(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotTrained, err)
	}
	return nil
}

func (p *Predictor) save(state *modelState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode predictor snapshot: %w", err)
	}
	if err := os.WriteFile(p.modelPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write predictor snapshot: %w", err)
	}
	return nil
}

func orNone(subcategory string) string {
	if subcategory == "" {
		return NoSubcategory
	}
	return subcategory
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
