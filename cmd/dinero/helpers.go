package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/dinero/internal/alerts"
	"github.com/Veraticus/dinero/internal/anomaly"
	"github.com/Veraticus/dinero/internal/config"
	"github.com/Veraticus/dinero/internal/predict"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/storage"
)

// initLedger opens the SQLite ledger and runs migrations.
func initLedger(ctx context.Context) (service.Ledger, error) {
	store, err := storage.NewSQLiteLedger(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initPredictor creates the expense predictor with its snapshot under
// the models directory.
func initPredictor(ledger service.Ledger) (*predict.Predictor, error) {
	modelsDir, err := config.ModelsDir()
	if err != nil {
		return nil, err
	}
	return predict.NewPredictor(ledger, filepath.Join(modelsDir, "predictor.json")), nil
}

// initDetector creates the anomaly detector with its snapshot under the
// models directory.
func initDetector(ledger service.Ledger) (*anomaly.Detector, error) {
	modelsDir, err := config.ModelsDir()
	if err != nil {
		return nil, err
	}
	return anomaly.NewDetector(ledger, filepath.Join(modelsDir, "detector.json")), nil
}

// initAggregator creates the alert aggregator persisting reports in the
// data directory.
func initAggregator(ledger service.Ledger, detector *anomaly.Detector) (*alerts.Aggregator, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	return alerts.NewAggregator(ledger, detector, filepath.Join(dataDir, "alerts.json")), nil
}
