/*
Package tileset implements a Game Boy 2bpp tile decoder and encoder.

An image is split into 8 by 8 tiles, left to right and then top to bottom.
Each pixel is one of four shades, 0 being the lightest. A tile is written as
16 bytes, two per row: the first byte holds bit 0 of each pixel's shade and
the second byte holds bit 1, with the leftmost pixel in bit 7.
*/
package tileset

import "image/color"

const (
	tileWidth   = 8
	tileHeight  = tileWidth
	shades      = 4
	bytesPerRow = 2

	// TileSize is the size in bytes of one encoded tile
	TileSize = tileHeight * bytesPerRow
)

// Palette maps each shade to the grey used when decoding
var Palette = color.Palette{
	color.Gray{Y: 0xff},
	color.Gray{Y: 0xaa},
	color.Gray{Y: 0x55},
	color.Gray{Y: 0x00},
}
