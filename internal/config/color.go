package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rook-computer/statuslcd/internal/render"
)

// ParseColor converts "#rrggbb" to RGB565.
func ParseColor(hex string) (render.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("color %q: want #rrggbb", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", hex, err)
	}
	return render.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Colors returns the parsed display colors. Call after Validate.
func (d DisplayConfig) Colors() (fg, bg render.Color, err error) {
	if fg, err = ParseColor(d.Foreground); err != nil {
		return 0, 0, err
	}
	if bg, err = ParseColor(d.Background); err != nil {
		return 0, 0, err
	}
	return fg, bg, nil
}
