package layerlist

import (
	"fmt"
	"image/color"

	"github.com/cespare/xxhash/v2"
	"github.com/muesli/gamut"
)

// legendBase is rotated around the hue wheel to produce every swatch, which
// keeps all of them at the same pastel lightness and saturation.
var legendBase = gamut.Hex("#f4b6c2")

// LegendColors assigns a pastel swatch (as #rrggbb) to every distinct layer
// name. The swatch is derived from the name alone, so the same layer gets the
// same colour on every render regardless of manifest order.
func LegendColors(layers []LayerOption) map[string]string {
	swatches := make(map[string]string, len(layers))
	for _, layer := range layers {
		if _, ok := swatches[layer.Name]; ok {
			continue
		}
		swatches[layer.Name] = colorHex(legendColor(layer.Name))
	}
	return swatches
}

func legendColor(name string) color.Color {
	return gamut.HueOffset(legendBase, int(xxhash.Sum64String(name)%360))
}

func colorHex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
