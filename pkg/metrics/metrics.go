// Package metrics provides ready-made scoring functions for the evaluation
// engine. Every function here satisfies core.Metric: it maps an expected
// example and an observed prediction to a score in [0.0, 1.0].
package metrics

import (
	"reflect"
	"strings"

	"golang.org/x/text/cases"

	"github.com/prompteng/teleprompt/pkg/core"
)

// ExactMatch scores 1.0 when every expected output field is present in the
// prediction with a deeply equal value, 0.0 otherwise.
func ExactMatch(example core.Example, prediction core.Prediction) float64 {
	for key, want := range example.Outputs {
		got, ok := prediction.Outputs[key]
		if !ok || !reflect.DeepEqual(want, got) {
			return 0.0
		}
	}
	return 1.0
}

// AnyMatch behaves like ExactMatch except that when a predicted field holds a
// slice, the expected value matching any element counts as a hit. Useful for
// programs that return ranked candidate answers.
func AnyMatch(example core.Example, prediction core.Prediction) float64 {
	for key, want := range example.Outputs {
		got, ok := prediction.Outputs[key]
		if !ok {
			return 0.0
		}

		if got != nil && reflect.TypeOf(got).Kind() == reflect.Slice {
			found := false
			slice := reflect.ValueOf(got)
			for i := 0; i < slice.Len(); i++ {
				if reflect.DeepEqual(want, slice.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return 0.0
			}
		} else if !reflect.DeepEqual(want, got) {
			return 0.0
		}
	}
	return 1.0
}

// FoldedMatch compares string fields under Unicode case folding, so "PARIS",
// "paris" and "Paris" all match. Non-string fields fall back to deep equality.
func FoldedMatch(example core.Example, prediction core.Prediction) float64 {
	folder := cases.Fold()
	for key, want := range example.Outputs {
		got, ok := prediction.Outputs[key]
		if !ok {
			return 0.0
		}

		wantStr, wantIsStr := want.(string)
		gotStr, gotIsStr := got.(string)
		if wantIsStr && gotIsStr {
			if folder.String(strings.TrimSpace(wantStr)) != folder.String(strings.TrimSpace(gotStr)) {
				return 0.0
			}
			continue
		}
		if !reflect.DeepEqual(want, got) {
			return 0.0
		}
	}
	return 1.0
}

// F1 computes a token-level F1 over the string fields shared by the expected
// outputs and the prediction, averaged across fields. Fields missing from the
// prediction or holding non-string values are skipped.
func F1(example core.Example, prediction core.Prediction) float64 {
	var total float64
	var count int

	for key, want := range example.Outputs {
		got, ok := prediction.Outputs[key]
		if !ok {
			continue
		}

		wantStr, wantIsStr := want.(string)
		gotStr, gotIsStr := got.(string)
		if !wantIsStr || !gotIsStr {
			continue
		}

		wantTokens := strings.Fields(wantStr)
		gotTokens := strings.Fields(gotStr)

		switch {
		case len(wantTokens) == 0 && len(gotTokens) == 0:
			total += 1.0
			count++
		case len(wantTokens) == 0 || len(gotTokens) == 0:
			count++
		default:
			overlap := tokenOverlap(wantTokens, gotTokens)
			precision := float64(overlap) / float64(len(gotTokens))
			recall := float64(overlap) / float64(len(wantTokens))
			if precision+recall > 0 {
				total += 2 * precision * recall / (precision + recall)
			}
			count++
		}
	}

	if count == 0 {
		return 0.0
	}
	return total / float64(count)
}

// tokenOverlap counts tokens shared between a and b, consuming each expected
// token at most once.
func tokenOverlap(a, b []string) int {
	remaining := make(map[string]int, len(a))
	for _, token := range a {
		remaining[token]++
	}

	overlap := 0
	for _, token := range b {
		if remaining[token] > 0 {
			remaining[token]--
			overlap++
		}
	}
	return overlap
}
