package predict

import "time"

// NoSubcategory is the placeholder label used when a transaction has no
// subcategory, so the encoder always has a value to learn.
const NoSubcategory = "none"

// featureColumns is the fixed feature order of the regression model.
// Changing it invalidates persisted snapshots.
var featureColumns = []string{
	"day_of_week",
	"day_of_month",
	"month",
	"quarter",
	"is_weekend",
	"is_month_start",
	"is_month_end",
	"is_recurring",
	"category",
	"subcategory",
	"payment_method",
}

// weekday maps time.Weekday to Monday=0..Sunday=6.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// featureVector engineers the model features for one expense.
func featureVector(date time.Time, isRecurring bool, categoryCode, subcategoryCode, methodCode int) []float64 {
	wd := weekday(date)
	day := date.Day()

	return []float64{
		float64(wd),
		float64(day),
		float64(int(date.Month())),
		float64((int(date.Month())-1)/3 + 1),
		boolFeature(wd >= 5),
		boolFeature(day <= 5),
		boolFeature(day >= 25),
		boolFeature(isRecurring),
		float64(categoryCode),
		float64(subcategoryCode),
		float64(methodCode),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
