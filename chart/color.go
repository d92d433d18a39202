package chart

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strings"
)

// ErrUnknownColor is returned by ParseColor for names it does not know.
var ErrUnknownColor = errors.New("unknown color")

// RGBA is a line color. Names follow the CSS color keywords.
type RGBA = color.RGBA

// DefaultColors assigns colors to lines by position.
var DefaultColors = []string{"blue", "red", "green", "orange", "purple", "black"}

var namedColors = map[string]RGBA{
	"blue":   {R: 0x00, G: 0x00, B: 0xff, A: 0xff},
	"red":    {R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	"green":  {R: 0x00, G: 0x80, B: 0x00, A: 0xff},
	"orange": {R: 0xff, G: 0xa5, B: 0x00, A: 0xff},
	"purple": {R: 0x80, G: 0x00, B: 0x80, A: 0xff},
	"black":  {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	"gray":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// ParseColor resolves a color name, case-insensitively.
func ParseColor(name string) (RGBA, error) {
	c, ok := namedColors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return RGBA{}, fmt.Errorf("%w %q (want one of %s)",
			ErrUnknownColor, name, strings.Join(ColorNames(), ", "))
	}

	return c, nil
}

// ColorNames returns the known color names in sorted order.
func ColorNames() []string {
	names := make([]string, 0, len(namedColors))
	for n := range namedColors {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}
