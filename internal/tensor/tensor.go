// Package tensor holds the few vector operations the probe applies to a
// single row of classifier logits.
package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Softmax returns the softmax of row. The row max is subtracted first so
// large logits do not overflow.
func Softmax(row []float64) []float64 {
	if len(row) == 0 {
		return nil
	}

	maxVal := math.Inf(-1)
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]float64, len(row))
	var sum float64
	for i, v := range row {
		out[i] = math.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest value, the first one on ties.
// It returns -1 for an empty row.
func Argmax(row []float64) int {
	best := -1
	for i, v := range row {
		if best == -1 || v > row[best] {
			best = i
		}
	}
	return best
}

// Format renders row as a [1, n] tensor, e.g. "tensor([[ 0.1234, -1.5000]])".
// Elements are right-aligned to the widest one.
func Format(row []float64) string {
	if len(row) == 0 {
		return "tensor([], size=(1, 0))"
	}

	parts := make([]string, len(row))
	width := 0
	for i, v := range row {
		parts[i] = fmt.Sprintf("%.4f", v)
		width = max(width, len(parts[i]))
	}
	for i, s := range parts {
		parts[i] = fmt.Sprintf("%*s", width, s)
	}
	return "tensor([[" + strings.Join(parts, ", ") + "]])"
}
