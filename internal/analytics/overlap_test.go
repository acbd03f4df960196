package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name   string
		aStart int64
		aEnd   int64
		bStart int64
		bEnd   int64
		want   int64
	}{
		{"Contained", 10, 20, 0, 100, 10},
		{"PartialLeft", 0, 50, 40, 100, 10},
		{"PartialRight", 40, 100, 0, 50, 10},
		{"Disjoint", 0, 10, 20, 30, 0},
		{"Touching", 0, 10, 10, 20, 0},
		{"Reversed", 20, 10, 0, 100, 0},
		{"Degenerate", 5, 5, 0, 10, 0},
		{"Identical", 3, 9, 3, 9, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestOverlapSymmetricAndBounded(t *testing.T) {
	ranges := [][2]int64{{0, 10}, {5, 15}, {10, 20}, {-5, 3}, {7, 7}, {0, 100}, {99, 101}}
	for _, a := range ranges {
		for _, b := range ranges {
			got := Overlap(a[0], a[1], b[0], b[1])
			assert.Equal(t, got, Overlap(b[0], b[1], a[0], a[1]), "symmetry %v %v", a, b)
			assert.GreaterOrEqual(t, got, int64(0))
			assert.LessOrEqual(t, got, max(0, min(a[1]-a[0], b[1]-b[0])), "bound %v %v", a, b)
		}
	}
}

func TestSecondsToHours(t *testing.T) {
	assert.Equal(t, 1.0, SecondsToHours(3600))
	assert.Equal(t, 1.5, SecondsToHours(5400))
	assert.Equal(t, 0.3, SecondsToHours(1000))
	assert.Equal(t, 0.0, SecondsToHours(0))
}
