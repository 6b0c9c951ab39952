package similarity

import (
	"errors"
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "scaled vectors", a: []float32{1, 1}, b: []float32{5, 5}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Cosine() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineLengthMismatch(t *testing.T) {
	if _, err := Cosine([]float32{1, 2}, []float32{1, 2, 3}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Cosine() error = %v, want ErrLengthMismatch", err)
	}
}

func TestCosineZeroMagnitude(t *testing.T) {
	if _, err := Cosine([]float32{0, 0}, []float32{1, 2}); !errors.Is(err, ErrZeroMagnitude) {
		t.Errorf("Cosine() error = %v, want ErrZeroMagnitude", err)
	}
}
