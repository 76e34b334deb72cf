package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/alerts"
	"github.com/Veraticus/dinero/internal/anomaly"
	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/predict"
	"github.com/Veraticus/dinero/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *testutil.MemoryLedger) {
	t.Helper()
	ledger := testutil.NewMemoryLedger()
	dir := t.TempDir()
	detector := anomaly.NewDetector(ledger, filepath.Join(dir, "detector.json"))
	detector.AutoTrain = false
	predictor := predict.NewPredictor(ledger, filepath.Join(dir, "predictor.json"))
	predictor.AutoTrain = false

	srv := New(Config{
		Ledger:     ledger,
		Predictor:  predictor,
		Detector:   detector,
		Aggregator: alerts.NewAggregator(ledger, detector, filepath.Join(dir, "alerts.json")),
		Port:       0,
	})
	return srv, ledger
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t)
	_, err := ledger.InsertTransaction(context.Background(), &model.Transaction{
		Date:          time.Now(),
		Kind:          model.KindIncome,
		Category:      "Salario",
		PaymentMethod: "Transferencia",
		Amount:        3000,
	})
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3000.0, summary["total_income"])
	assert.Equal(t, 1.0, summary["transactions"])
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "valid expense",
			body: map[string]any{
				"kind": "expense", "category": "Alimentación",
				"payment_method": "Efectivo", "amount": 25.5,
			},
			want: http.StatusCreated,
		},
		{
			name: "bad kind",
			body: map[string]any{
				"kind": "transfer", "category": "Alimentación",
				"payment_method": "Efectivo", "amount": 25.5,
			},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown category",
			body: map[string]any{
				"kind": "expense", "category": "Mascotas",
				"payment_method": "Efectivo", "amount": 25.5,
			},
			want: http.StatusBadRequest,
		},
		{
			name: "negative amount",
			body: map[string]any{
				"kind": "expense", "category": "Alimentación",
				"payment_method": "Efectivo", "amount": -5,
			},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/transactions", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, ledger := newTestServer(t)
	id, err := ledger.InsertTransaction(context.Background(), &model.Transaction{
		Date:          time.Now(),
		Kind:          model.KindExpense,
		Category:      "Transporte",
		PaymentMethod: "Efectivo",
		Amount:        12,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	rec := doJSON(t, srv.Router(), http.MethodDelete, "/api/v1/transactions/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Router(), http.MethodDelete, "/api/v1/transactions/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv.Router(), http.MethodDelete, "/api/v1/transactions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBudgetUpsertAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/budgets", map[string]any{
		"category": "Alimentación", "monthly_amount": 1000.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var budget model.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &budget))
	assert.Equal(t, model.DefaultAlertThresholdPct, budget.AlertThresholdPct)

	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/v1/budgets", map[string]any{
		"category": "NotACategory", "monthly_amount": 100.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Router(), http.MethodGet, "/api/v1/budgets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var budgets []model.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &budgets))
	assert.Len(t, budgets, 1)
}

func TestPredictRequiresTrainedModel(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/predict", map[string]any{
		"category": "Alimentación",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDetectDegradesGracefully(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/detect", map[string]any{
		"category": "Alimentación", "amount": 500.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, false, result["is_anomaly"])
}

func TestAlertsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.AlertReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Zero(t, report.TotalAlerts)
}

func TestDashboardServed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Dinero")
}

func TestExportCSVEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t)
	_, err := ledger.InsertTransaction(context.Background(), &model.Transaction{
		Date:          time.Now(),
		Kind:          model.KindExpense,
		Category:      "Transporte",
		PaymentMethod: "Efectivo",
		Amount:        12,
	})
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/v1/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Transporte")
}
