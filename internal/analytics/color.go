package analytics

import "unicode/utf16"

// DefaultPalette is the chart palette used when no override is configured.
var DefaultPalette = Palette{
	"#4F46E5", "#0EA5E9", "#10B981", "#F59E0B",
	"#EF4444", "#8B5CF6", "#EC4899", "#14B8A6",
}

// ColorIndex maps id to a bucket in [0, size) by summing its UTF-16 code units, so identifiers
// outside the BMP land where the web console puts them. size <= 0 yields 0.
func ColorIndex(id string, size int) int {
	if size <= 0 {
		return 0
	}
	sum := 0
	for _, unit := range utf16.Encode([]rune(id)) {
		sum += int(unit)
	}
	return sum % size
}

// Palette is an ordered list of colors addressed by ColorIndex.
type Palette []string

// Index returns the bucket for id within the palette.
func (p Palette) Index(id string) int {
	return ColorIndex(id, len(p))
}

// Color returns the palette entry for id, or "" for an empty palette.
func (p Palette) Color(id string) string {
	if len(p) == 0 {
		return ""
	}
	return p[p.Index(id)]
}
