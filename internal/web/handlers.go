package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/predict"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.stats.ExpensesByCategory(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.stats.MonthlyTrend(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, trend)
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.stats.PaymentMethodBreakdown(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, methods)
}

func (s *Server) handleUnusual(w http.ResponseWriter, r *http.Request) {
	threshold := queryFloat(r, "threshold", 0)
	unusual, err := s.stats.UnusualExpenses(r.Context(), threshold)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, unusual)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	projection, err := s.stats.Projection(r.Context(), days)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, projection)
}

func (s *Server) handleTopExpenses(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 5)
	top, err := s.stats.TopExpenses(r.Context(), n)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, top)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	recurring, err := s.stats.RecurringSummary(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, recurring)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, txns)
}

type createTransactionRequest struct {
	Date          string  `json:"date"` // YYYY-MM-DD, empty means today
	Kind          string  `json:"kind"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	PaymentMethod string  `json:"payment_method"`
	Memo          string  `json:"memo"`
	Notes         string  `json:"notes"`
	Amount        float64 `json:"amount"`
	IsRecurring   bool    `json:"is_recurring"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	kind := model.TransactionKind(req.Kind)
	if err := kind.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !model.ValidCategory(kind, req.Category) {
		s.respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		s.respondError(w, http.StatusBadRequest, "unknown payment method")
		return
	}
	if req.Amount <= 0 {
		s.respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	txn := &model.Transaction{
		Date:          date,
		Kind:          kind,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		PaymentMethod: req.PaymentMethod,
		Memo:          req.Memo,
		Notes:         req.Notes,
		Amount:        req.Amount,
		IsRecurring:   req.IsRecurring,
	}
	id, err := s.ledger.InsertTransaction(r.Context(), txn)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	txn.ID = id
	s.respondJSON(w, http.StatusCreated, txn)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	deleted, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		s.respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.Budgets(r.Context(), false)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, budgets)
}

type upsertBudgetRequest struct {
	Category          string  `json:"category"`
	MonthlyAmount     float64 `json:"monthly_amount"`
	AlertThresholdPct float64 `json:"alert_threshold_pct"`
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !model.ValidCategory(model.KindExpense, req.Category) {
		s.respondError(w, http.StatusBadRequest, "unknown expense category")
		return
	}

	budget, err := s.aggregator.CreateOrUpdateBudget(r.Context(), req.Category, req.MonthlyAmount, req.AlertThresholdPct)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, budget)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	predictResult, predictErr := s.predictor.Train(r.Context())
	detectResult, detectErr := s.detector.Train(r.Context())

	if predictErr != nil && detectErr != nil {
		s.respondError(w, http.StatusConflict, predictErr.Error())
		return
	}

	response := map[string]any{}
	if predictErr != nil {
		response["predictor_error"] = predictErr.Error()
	} else {
		response["predictor"] = predictResult
	}
	if detectErr != nil {
		response["detector_error"] = detectErr.Error()
	} else {
		response["detector"] = detectResult
	}
	s.respondJSON(w, http.StatusOK, response)
}

type predictRequest struct {
	Date          string `json:"date"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	PaymentMethod string `json:"payment_method"`
	IsRecurring   bool   `json:"is_recurring"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	amount, err := s.predictor.PredictExpense(r.Context(), predict.Request{
		Date:          date,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		PaymentMethod: req.PaymentMethod,
		IsRecurring:   req.IsRecurring,
	})
	switch {
	case errors.Is(err, predict.ErrUnknownCategory):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, predict.ErrNotTrained):
		s.respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"category":  req.Category,
		"predicted": amount,
	})
}

func (s *Server) handlePredictMonth(w http.ResponseWriter, r *http.Request) {
	month := queryInt(r, "month", 0)
	year := queryInt(r, "year", 0)

	forecast, err := s.predictor.PredictMonth(r.Context(), month, year)
	if err != nil {
		if errors.Is(err, predict.ErrNotTrained) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, forecast)
}

type detectRequest struct {
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := s.detector.Detect(r.Context(), req.Amount, req.Category, date)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := s.aggregator.GenerateReport(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if _, err := s.exporter.Export(r.Context(), w); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
