// Package datagen seeds the ledger with realistic sample transactions
// for demos and model training.
package datagen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
)

// DefaultDays is the default history length to generate.
const DefaultDays = 90

// Generator writes synthetic income and expense history into a ledger.
type Generator struct {
	ledger service.Ledger
	rng    *rand.Rand
	// MinPerDay and MaxPerDay bound the number of expenses per day.
	MinPerDay int
	MaxPerDay int
}

// NewGenerator creates a generator with the given seed. The same seed
// over the same ledger produces the same history.
func NewGenerator(ledger service.Ledger, seed int64) *Generator {
	return &Generator{
		ledger:    ledger,
		rng:       rand.New(rand.NewSource(seed)),
		MinPerDay: 2,
		MaxPerDay: 8,
	}
}

var subcategories = map[string][]string{
	"Alimentación":    {"Supermercado", "Restaurante", "Comida rápida", "Cafetería"},
	"Transporte":      {"Gasolina", "Taxi/Uber", "Transporte público", "Mantenimiento"},
	"Vivienda":        {"Alquiler", "Hipoteca", "Mantenimiento", "Muebles"},
	"Servicios":       {"Luz", "Agua", "Internet", "Teléfono", "Gas"},
	"Salud":           {"Médico", "Farmacia", "Gimnasio", "Seguro"},
	"Entretenimiento": {"Cine", "Streaming", "Videojuegos", "Salidas"},
	"Educación":       {"Cursos", "Libros", "Material", "Matrícula"},
	"Ropa":            {"Ropa casual", "Ropa formal", "Zapatos", "Accesorios"},
	"Tecnología":      {"Software", "Hardware", "Accesorios", "Reparaciones"},
	"Otros":           {"Regalos", "Donaciones", "Varios"},
}

var expenseMemos = map[string][]string{
	"Alimentación":    {"Compra semanal del supermercado", "Almuerzo en restaurante", "Café con amigos", "Cena familiar"},
	"Transporte":      {"Recarga de combustible", "Viaje en Uber al trabajo", "Boleto de transporte público"},
	"Servicios":       {"Pago de recibo de luz", "Pago de internet mensual", "Recarga de celular"},
	"Salud":           {"Consulta médica", "Compra de medicamentos", "Pago de gimnasio mensual"},
	"Entretenimiento": {"Boletos de cine", "Suscripción Netflix", "Salida nocturna"},
}

var incomeMemos = map[string][]string{
	"Freelance":   {"Pago por proyecto web", "Consultoría", "Diseño gráfico"},
	"Inversiones": {"Dividendos", "Rendimientos", "Venta de acciones"},
	"Bonos":       {"Bono de productividad", "Aguinaldo", "Comisión por ventas"},
}

// amountRanges gives realistic per-category expense bounds.
var amountRanges = map[string][2]float64{
	"Alimentación":    {10, 150},
	"Transporte":      {5, 100},
	"Vivienda":        {500, 1500},
	"Servicios":       {20, 200},
	"Salud":           {30, 300},
	"Entretenimiento": {15, 200},
	"Educación":       {50, 500},
	"Ropa":            {30, 300},
	"Tecnología":      {50, 1000},
	"Otros":           {10, 200},
}

// Generate seeds the ledger with the given number of trailing days of
// history: a monthly salary on the 1st, occasional extra income, and a
// few expenses per day. It renders a progress bar to w and returns the
// number of transactions inserted.
func (g *Generator) Generate(ctx context.Context, days int, w io.Writer) (int, error) {
	if days <= 0 {
		days = DefaultDays
	}

	slog.Info("Generating sample data", "days", days)

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	bar := progressbar.NewOptions(days,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Generating transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)

	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		n, err := g.generateDay(ctx, day)
		if err != nil {
			return total, err
		}
		total += n
		_ = bar.Add(1)
	}

	slog.Info("Sample data generated", "transactions", total)
	return total, nil
}

func (g *Generator) generateDay(ctx context.Context, day time.Time) (int, error) {
	count := 0

	// Salary lands on the 1st of each month.
	if day.Day() == 1 {
		salary := &model.Transaction{
			Date:          at(day, 8+g.rng.Intn(3), 0),
			Kind:          model.KindIncome,
			Category:      "Salario",
			PaymentMethod: "Transferencia",
			Memo:          "Pago de nómina mensual",
			Amount:        round2(3000 + g.rng.Float64()*2000),
			IsRecurring:   true,
		}
		if _, err := g.ledger.InsertTransaction(ctx, salary); err != nil {
			return count, fmt.Errorf("failed to insert salary: %w", err)
		}
		count++
	}

	// Occasional extra income.
	if g.rng.Float64() < 0.1 {
		category := pick(g.rng, []string{"Freelance", "Bonos", "Inversiones"})
		extra := &model.Transaction{
			Date:          at(day, 8+g.rng.Intn(13), g.rng.Intn(60)),
			Kind:          model.KindIncome,
			Category:      category,
			PaymentMethod: pick(g.rng, []string{"Transferencia", "PayPal"}),
			Memo:          pick(g.rng, incomeMemos[category]),
			Amount:        round2(200 + g.rng.Float64()*1300),
		}
		if _, err := g.ledger.InsertTransaction(ctx, extra); err != nil {
			return count, fmt.Errorf("failed to insert income: %w", err)
		}
		count++
	}

	expenses := g.MinPerDay + g.rng.Intn(g.MaxPerDay-g.MinPerDay+1)
	for i := 0; i < expenses; i++ {
		category := pick(g.rng, model.ExpenseCategories)
		bounds := amountRanges[category]
		amount := round2(bounds[0] + g.rng.Float64()*(bounds[1]-bounds[0]))

		memo := fmt.Sprintf("Gasto en %s", category)
		if memos, ok := expenseMemos[category]; ok {
			memo = pick(g.rng, memos)
		}

		txn := &model.Transaction{
			Date:          at(day, 6+g.rng.Intn(18), g.rng.Intn(60)),
			Kind:          model.KindExpense,
			Category:      category,
			Subcategory:   pick(g.rng, subcategories[category]),
			PaymentMethod: g.paymentMethodFor(amount),
			Memo:          memo,
			Amount:        amount,
			IsRecurring:   (category == "Servicios" || category == "Vivienda") && g.rng.Float64() < 0.3,
		}
		if _, err := g.ledger.InsertTransaction(ctx, txn); err != nil {
			return count, fmt.Errorf("failed to insert expense: %w", err)
		}
		count++
	}

	return count, nil
}

// paymentMethodFor picks a method with a size-dependent distribution:
// large amounts go on credit or transfer, small ones anywhere.
func (g *Generator) paymentMethodFor(amount float64) string {
	switch {
	case amount > 500:
		return pick(g.rng, []string{"Tarjeta de Crédito", "Transferencia"})
	case amount > 100:
		return pick(g.rng, []string{"Tarjeta de Débito", "Tarjeta de Crédito"})
	default:
		return pick(g.rng, model.PaymentMethods)
	}
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
