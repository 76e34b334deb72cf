// Package ml implements the small model substrate the predictor and the
// anomaly detector are built on: categorical encoding, feature scaling,
// a random-forest regressor, an isolation forest, and regression metrics.
//
// Every estimator is deterministic for a fixed seed and serializes its
// fitted state to JSON, so a trained model survives a process restart.
package ml

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLabel is returned when a label was never seen during Fit.
// Callers must treat it as an input error, not a missing-model condition.
var ErrUnknownLabel = errors.New("unknown label")

// ErrNotFitted is returned when an estimator is used before Fit.
var ErrNotFitted = errors.New("estimator is not fitted")

// LabelEncoder maps string labels to integer codes. Codes are assigned
// by sorted label order, so encoding is stable for a given training set
// but NOT across refits on different data.
type LabelEncoder struct {
	Index   map[string]int `json:"-"`
	Classes []string       `json:"classes"`
}

// NewLabelEncoder creates an unfitted label encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the label vocabulary, replacing any previous state.
func (e *LabelEncoder) Fit(labels []string) {
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}
	sort.Strings(classes)

	e.Classes = classes
	e.rebuildIndex()
}

// Transform encodes a single label, returning ErrUnknownLabel for
// vocabulary never seen during Fit.
func (e *LabelEncoder) Transform(label string) (int, error) {
	if len(e.Classes) == 0 {
		return 0, ErrNotFitted
	}
	if e.Index == nil {
		e.rebuildIndex()
	}

	code, ok := e.Index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

// rebuildIndex recomputes the label lookup from Classes; needed after
// JSON round-trips, which only carry the class list.
func (e *LabelEncoder) rebuildIndex() {
	e.Index = make(map[string]int, len(e.Classes))
	for i, class := range e.Classes {
		e.Index[class] = i
	}
}
