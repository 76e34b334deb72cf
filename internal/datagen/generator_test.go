package datagen

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/testutil"
)

func TestGenerateProducesValidHistory(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	gen := NewGenerator(ledger, 1)

	total, err := gen.Generate(context.Background(), 30, io.Discard)
	require.NoError(t, err)

	count, err := ledger.CountTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, total, count)

	// At least MinPerDay expenses per day plus one salary.
	assert.GreaterOrEqual(t, total, 30*gen.MinPerDay+1)

	txns, err := ledger.Transactions(context.Background())
	require.NoError(t, err)

	var salaries int
	for _, txn := range txns {
		require.NoError(t, txn.Kind.Validate())
		assert.Greater(t, txn.Amount, 0.0)
		assert.True(t, model.ValidCategory(txn.Kind, txn.Category), "category %q for kind %s", txn.Category, txn.Kind)
		assert.True(t, model.ValidPaymentMethod(txn.PaymentMethod))
		if txn.Category == "Salario" {
			salaries++
			assert.True(t, txn.IsRecurring)
		}
	}
	assert.GreaterOrEqual(t, salaries, 1, "a salary should land on the 1st of the month")
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	first := testutil.NewMemoryLedger()
	second := testutil.NewMemoryLedger()

	totalFirst, err := NewGenerator(first, 42).Generate(context.Background(), 14, io.Discard)
	require.NoError(t, err)
	totalSecond, err := NewGenerator(second, 42).Generate(context.Background(), 14, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, totalFirst, totalSecond)
}
