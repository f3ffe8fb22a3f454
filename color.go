package main

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// colorThreshold is the maximum Euclidean distance in 0-255 RGB space.
const colorThreshold = 50.0

func parseHex(hex string) (colorful.Color, bool) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return colorful.Color{}, false
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 7 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func colorsAreSimilar(hex1, hex2 string) bool {
	c1, ok1 := parseHex(hex1)
	c2, ok2 := parseHex(hex2)
	if !ok1 || !ok2 {
		return false
	}
	return c1.DistanceRgb(c2)*255 < colorThreshold
}

// colorRelevance scores how well a photo's average colour suits the context
// palettes and the deck theme.
func colorRelevance(avgColor string, context string, theme *ThemeColors) float64 {
	var score float64
	ctx := lowerText(context)
	for _, p := range colorPalettes {
		if !strings.Contains(ctx, p.keyword) {
			continue
		}
		for _, c := range p.colors {
			if colorsAreSimilar(avgColor, c) {
				score += 1
			}
		}
	}
	if theme != nil {
		if colorsAreSimilar(avgColor, theme.Primary) {
			score += 0.5
		}
		if colorsAreSimilar(avgColor, theme.Secondary) {
			score += 0.3
		}
	}
	return score
}
