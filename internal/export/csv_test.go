package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/testutil"
)

func TestExportWritesHeaderAndRows(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.InsertTransaction(ctx, &model.Transaction{
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Kind:          model.KindExpense,
		Category:      "Alimentación",
		PaymentMethod: "Efectivo",
		Amount:        25.5,
		Memo:          "groceries, with a comma",
	})
	require.NoError(t, err)
	_, err = ledger.InsertTransaction(ctx, &model.Transaction{
		Date:          time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Kind:          model.KindIncome,
		Category:      "Salario",
		PaymentMethod: "Transferencia",
		Amount:        3000,
		IsRecurring:   true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	count, err := NewCSVExporter(ledger).Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	// Newest first.
	assert.Equal(t, "income", records[1][2])
	assert.Equal(t, "true", records[1][9])
	assert.Equal(t, "expense", records[2][2])
	assert.Equal(t, "25.50", records[2][6])
	assert.Equal(t, "groceries, with a comma", records[2][7])
}

func TestExportRangeFilters(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	for day := 1; day <= 10; day++ {
		_, err := ledger.InsertTransaction(ctx, &model.Transaction{
			Date:          time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			Kind:          model.KindExpense,
			Category:      "Transporte",
			PaymentMethod: "Efectivo",
			Amount:        10,
		})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	count, err := NewCSVExporter(ledger).ExportRange(ctx, &buf,
		time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestExportMonthlySummary(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.InsertTransaction(ctx, &model.Transaction{
		Date:          time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Kind:          model.KindIncome,
		Category:      "Salario",
		PaymentMethod: "Transferencia",
		Amount:        3000,
	})
	require.NoError(t, err)
	_, err = ledger.InsertTransaction(ctx, &model.Transaction{
		Date:          time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Kind:          model.KindExpense,
		Category:      "Vivienda",
		PaymentMethod: "Transferencia",
		Amount:        800,
	})
	require.NoError(t, err)
	_, err = ledger.InsertTransaction(ctx, &model.Transaction{
		Date:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Kind:          model.KindExpense,
		Category:      "Alimentación",
		PaymentMethod: "Efectivo",
		Amount:        120.5,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	count, err := NewCSVExporter(ledger).ExportMonthlySummary(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, summaryHeader, records[0])
	// Oldest month first.
	assert.Equal(t, []string{"2026-02", "3000.00", "800.00", "2200.00"}, records[1])
	assert.Equal(t, []string{"2026-03", "0.00", "120.50", "-120.50"}, records[2])
}
