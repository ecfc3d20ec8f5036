package tileset

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
)

var errSize = errors.New("tileset: image size is not a multiple of 8")

// Perceived brightness, scaled by 1000
func luminance(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return 299*r + 587*g + 114*b
}

// Map each palette index to a shade, lightest first
func shadeMap(p color.Palette) []byte {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return luminance(p[idx[i]]) > luminance(p[idx[j]])
	})

	m := make([]byte, len(p))
	for shade, i := range idx {
		m[i] = byte(shade)
	}
	return m
}

// The palette m already uses, if any
func paletteOf(m image.Image) color.Palette {
	if pm, ok := m.(*image.Paletted); ok {
		return pm.Palette
	}
	p, _ := m.ColorModel().(color.Palette)
	return p
}

// Redraw m at the origin using at most four colours, median-cut quantizing
// it first if it doesn't already fit
func toShades(m image.Image) *image.Paletted {
	b := m.Bounds()

	p := paletteOf(m)
	if p == nil || len(p) > shades {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, shades), m)
	}

	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)
	draw.Draw(pm, pm.Rect, m, b.Min, draw.Src)

	return pm
}

// Tiles converts m to at most four shades and returns each 8 by 8 tile
// encoded as TileSize bytes.
func Tiles(m image.Image) ([][]byte, error) {
	b := m.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || b.Dx()%tileWidth != 0 || b.Dy()%tileHeight != 0 {
		return nil, errSize
	}

	pm := toShades(m)
	shade := shadeMap(pm.Palette)

	tileX, tileY := b.Dx()/tileWidth, b.Dy()/tileHeight
	tiles := make([][]byte, 0, tileX*tileY)

	for ty := 0; ty < tileY; ty++ {
		for tx := 0; tx < tileX; tx++ {
			t := make([]byte, TileSize)
			for y := 0; y < tileHeight; y++ {
				var lo, hi byte
				for x := 0; x < tileWidth; x++ {
					s := shade[pm.ColorIndexAt(tx*tileWidth+x, ty*tileHeight+y)]
					bit := uint(tileWidth - 1 - x)
					lo |= s & 1 << bit
					hi |= s >> 1 & 1 << bit
				}
				t[y*bytesPerRow], t[y*bytesPerRow+1] = lo, hi
			}
			tiles = append(tiles, t)
		}
	}

	return tiles, nil
}
