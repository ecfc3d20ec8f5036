/*
Package chunk implements the packed chunk format used by the Pineapple of
Doom ROM.

A chunk is an 8 by 8 grid of tiles. Each tile id is stored as a 4-bit value,
two per byte with the first tile in the upper nibble, giving 32 bytes of tile
data. A final byte holds three flags and the clutter level:

	bit 7    top door
	bit 6    left door
	bit 5    corner
	bits 4-0 clutter level

There is no header or padding so every chunk is exactly 33 bytes.
*/
package chunk

import (
	"errors"
	"fmt"
)

const (
	// Width is the number of tiles per row
	Width = 8
	// Height is the number of rows
	Height = 8
	// Tiles is the number of tiles in a chunk
	Tiles = Width * Height
	// CellSize is the size in pixels of one tile in the level editor
	CellSize = 8

	tileBits    = 4
	clutterBits = 5
	tileBytes   = Tiles >> 1

	// Size is the size in bytes of a packed chunk
	Size = tileBytes + 1
)

const (
	topDoorFlag  = 1 << 7
	leftDoorFlag = 1 << 6
	cornerFlag   = 1 << 5
	clutterMask  = 1<<clutterBits - 1
)

var (
	// ErrRange is wrapped by any RangeError
	ErrRange = errors.New("chunk: value out of range")
	// ErrOutOfBounds is returned when an entity lands outside the grid
	ErrOutOfBounds = errors.New("chunk: entity outside grid")
	// ErrOddGrid is returned when the tiles cannot be split into pairs
	ErrOddGrid = errors.New("chunk: odd number of tiles")
	// ErrGridSize is returned when a grid isn't exactly Tiles long
	ErrGridSize = errors.New("chunk: wrong number of tiles")
	errShort    = errors.New("chunk: not enough data")
)

// Metadata holds the per-chunk flags and clutter level
type Metadata struct {
	TopDoor  bool
	LeftDoor bool
	Corner   bool
	Clutter  int
}

// Entity is an object placed in the level editor at pixel coordinates
type Entity struct {
	X  int
	Y  int
	ID int
}

// RangeError reports a value that doesn't fit its bit field
type RangeError struct {
	Field string
	Index int
	Value int
	Bits  uint
}

func (e *RangeError) Error() string {
	if e.Field == "tile" {
		return fmt.Sprintf("chunk: tile %d has id %d which does not fit in %d bits", e.Index, e.Value, e.Bits)
	}
	return fmt.Sprintf("chunk: %s %d does not fit in %d bits", e.Field, e.Value, e.Bits)
}

func (e *RangeError) Unwrap() error {
	return ErrRange
}

// FitsInBits reports whether value can be stored in an n-bit unsigned field
func FitsInBits(value int, n uint) bool {
	if value < 0 {
		return false
	}
	if n >= 63 {
		return true
	}
	return value < 1<<n
}
