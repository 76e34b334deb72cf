package anomaly

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/dinero/internal/model"
)

// featureVector builds the detector's input: amount, log1p(amount),
// per-category z-score, weekday (Monday=0), hour, day of month, weekend
// flag, and late-night flag (22:00 through 06:59).
func featureVector(amount float64, date time.Time, categoryMean, categoryStd float64) []float64 {
	weekday := float64((int(date.Weekday()) + 6) % 7)
	hour := date.Hour()

	return []float64{
		amount,
		math.Log1p(amount),
		(amount - categoryMean) / (categoryStd + epsilon),
		weekday,
		float64(hour),
		float64(date.Day()),
		boolFeature(weekday >= 5),
		boolFeature(hour >= 22 || hour <= 6),
	}
}

type baseline struct {
	mean float64
	std  float64
}

// trainingBaselines computes per-category mean and sample standard
// deviation over the training expenses. Single-sample categories get a
// zero spread.
func trainingBaselines(expenses []model.Transaction) map[string]baseline {
	amounts := make(map[string][]float64)
	for _, txn := range expenses {
		amounts[txn.Category] = append(amounts[txn.Category], txn.Amount)
	}

	baselines := make(map[string]baseline, len(amounts))
	for category, values := range amounts {
		b := baseline{mean: stat.Mean(values, nil)}
		if len(values) > 1 {
			b.std = stat.StdDev(values, nil)
		}
		baselines[category] = b
	}
	return baselines
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
