package grouping

// Color labels a duplicate group. Labels rotate with the group's rank.
type Color string

const (
	Color1 Color = "group-color-1"
	Color2 Color = "group-color-2"
	Color3 Color = "group-color-3"
	Color4 Color = "group-color-4"
	Color5 Color = "group-color-5"
)

// Palette is the rotation order of group colors.
var Palette = []Color{Color1, Color2, Color3, Color4, Color5}

var fills = map[Color]string{
	Color1: "#FFF2CC",
	Color2: "#DDEBF7",
	Color3: "#E2EFDA",
	Color4: "#FCE4D6",
	Color5: "#EDE1F5",
}

// ColorForRank returns the color of the group at the given 0-based rank.
func ColorForRank(rank int) Color {
	if rank < 0 {
		rank = -rank
	}
	return Palette[rank%len(Palette)]
}

// Fill returns the spreadsheet fill used for rows of this color, or "" for
// labels outside the palette.
func (c Color) Fill() string {
	return fills[c]
}

// ParseColor accepts a stored label and reports whether it belongs to the palette.
func ParseColor(s string) (Color, bool) {
	c := Color(s)
	_, ok := fills[c]
	return c, ok
}
