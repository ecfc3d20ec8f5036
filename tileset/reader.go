package tileset

import (
	"errors"
	"image"
	"io"
)

var (
	errNotEnough = errors.New("tileset: not enough tile data")
	errPerRow    = errors.New("tileset: invalid tiles per row")
)

// Decode reads 2bpp tiles from r and lays them out perRow tiles wide,
// returning a paletted image using Palette.
func Decode(r io.Reader, perRow int) (image.Image, error) {
	if perRow < 1 {
		return nil, errPerRow
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || len(b)%TileSize != 0 {
		return nil, errNotEnough
	}

	n := len(b) / TileSize
	if n < perRow {
		perRow = n
	}
	rows := (n + perRow - 1) / perRow

	m := image.NewPaletted(image.Rect(0, 0, perRow*tileWidth, rows*tileHeight), Palette)

	for i := 0; i < n; i++ {
		tx, ty := i%perRow, i/perRow
		t := b[i*TileSize : (i+1)*TileSize]
		for y := 0; y < tileHeight; y++ {
			lo, hi := t[y*bytesPerRow], t[y*bytesPerRow+1]
			for x := 0; x < tileWidth; x++ {
				bit := uint(tileWidth - 1 - x)
				s := lo>>bit&1 | (hi>>bit&1)<<1
				m.SetColorIndex(tx*tileWidth+x, ty*tileHeight+y, s)
			}
		}
	}

	return m, nil
}
