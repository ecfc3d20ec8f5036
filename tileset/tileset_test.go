package tileset

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deliberately not in shade order
var mixed = color.Palette{
	color.Gray{Y: 0x00},
	color.Gray{Y: 0xff},
	color.Gray{Y: 0x60},
	color.Gray{Y: 0xb0},
}

// Palette index for each shade in mixed
var mixedIndex = [shades]uint8{1, 3, 2, 0}

func TestTiles(t *testing.T) {
	m := image.NewPaletted(image.Rect(0, 0, 16, 8), mixed)
	for x := 0; x < 16; x++ {
		for y := 1; y < 7; y++ {
			m.SetColorIndex(x, y, mixedIndex[0])
		}
		m.SetColorIndex(x, 0, mixedIndex[x%shades])
		m.SetColorIndex(x, 7, mixedIndex[3])
	}

	tiles, err := Tiles(m)
	require.NoError(t, err)
	require.Len(t, tiles, 2)

	for _, tile := range tiles {
		require.Len(t, tile, TileSize)
		// Shades 0, 1, 2, 3, 0, 1, 2, 3
		assert.Equal(t, []byte{0x55, 0x33}, tile[0:2])
		assert.Equal(t, []byte{0x00, 0x00}, tile[2:4])
		assert.Equal(t, []byte{0xff, 0xff}, tile[14:16])
	}
}

func TestRoundTrip(t *testing.T) {
	m := image.NewPaletted(image.Rect(0, 0, 24, 16), Palette)
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			m.SetColorIndex(x, y, uint8((x*y+x)%shades))
		}
	}

	tiles, err := Tiles(m)
	require.NoError(t, err)
	require.Len(t, tiles, 6)

	d, err := Decode(bytes.NewReader(bytes.Join(tiles, nil)), 3)
	require.NoError(t, err)
	assert.Equal(t, m.Bounds(), d.Bounds())

	pd, ok := d.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, m.Pix, pd.Pix)
}

func TestQuantize(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(x * 32)
			m.Set(x, y, color.RGBA{v, v, uint8(y * 32), 0xff})
		}
	}

	tiles, err := Tiles(m)
	require.NoError(t, err)
	require.Len(t, tiles, 1)

	d, err := Decode(bytes.NewReader(tiles[0]), 1)
	require.NoError(t, err)

	colors := make(map[color.Color]struct{})
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			colors[d.At(x, y)] = struct{}{}
		}
	}
	assert.LessOrEqual(t, len(colors), shades)
}

func TestWrongSize(t *testing.T) {
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 9, 8),
		image.Rect(0, 0, 8, 12),
		image.Rect(0, 0, 0, 0),
	} {
		_, err := Tiles(image.NewGray(r))
		assert.Error(t, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, TileSize-1)), 1)
	assert.Error(t, err)

	_, err = Decode(bytes.NewReader(make([]byte, TileSize)), 0)
	assert.Error(t, err)
}

func TestOffsetImage(t *testing.T) {
	m := image.NewPaletted(image.Rect(8, 8, 16, 16), Palette)
	m.SetColorIndex(8, 8, 3)

	tiles, err := Tiles(m)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, []byte{0x80, 0x80}, tiles[0][0:2])
}

func TestPaletteModel(t *testing.T) {
	// Has a palette colour model without being an *image.Paletted
	m := &paletteModelImage{image.NewRGBA(image.Rect(0, 0, 8, 8))}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.Set(x, y, color.White)
		}
	}
	for x := 0; x < 8; x++ {
		m.Set(x, 0, color.Black)
	}

	tiles, err := Tiles(m)
	require.NoError(t, err)
	require.Len(t, tiles, 1)

	// Two colours so black is shade 1
	assert.Equal(t, []byte{0xff, 0x00}, tiles[0][0:2])
	assert.Equal(t, []byte{0x00, 0x00}, tiles[0][2:4])
}

type paletteModelImage struct {
	*image.RGBA
}

func (paletteModelImage) ColorModel() color.Model {
	return color.Palette{color.White, color.Black}
}
