package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorIndex(t *testing.T) {
	tests := []struct {
		name string
		id   string
		size int
		want int
	}{
		{"Empty", "", 8, 0},
		{"SingleChar", "A", 8, 65 % 8},
		{"Word", "math", 8, (109 + 97 + 116 + 104) % 8},
		{"ZeroPalette", "math", 0, 0},
		{"NegativePalette", "math", -3, 0},
		{"Ideographs", "数学", 8, (0x6570 + 0x5B66) % 8},
		{"SurrogatePair", "\U0001F600", 8, (0xD83D + 0xDE00) % 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorIndex(tt.id, tt.size))
		})
	}
}

func TestColorIndexDeterministic(t *testing.T) {
	ids := []string{"Class A", "Kelas 7B", "sub-12", "数学"}
	first := make([]int, len(ids))
	for i, id := range ids {
		first[i] = ColorIndex(id, len(DefaultPalette))
	}
	for round := 0; round < 5; round++ {
		for i := len(ids) - 1; i >= 0; i-- {
			assert.Equal(t, first[i], ColorIndex(ids[i], len(DefaultPalette)))
		}
	}
}

func TestPaletteColor(t *testing.T) {
	palette := Palette{"red", "green"}

	assert.Equal(t, palette[palette.Index("ab")], palette.Color("ab"))
	assert.Equal(t, "", Palette{}.Color("ab"))
	assert.Equal(t, 0, Palette{}.Index("ab"))
}
