package chunk

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func boolBit(b bool, flag byte) byte {
	if b {
		return flag
	}
	return 0
}

// Pack encodes grid and meta into a Size byte chunk.
func Pack(grid []int, meta Metadata) ([]byte, error) {
	return pack(grid, meta, nil)
}

func pack(grid []int, meta Metadata, log logrus.FieldLogger) ([]byte, error) {
	if len(grid)&1 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddGrid, len(grid))
	}
	if len(grid) != Tiles {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrGridSize, len(grid), Tiles)
	}

	b := make([]byte, Size)

	for i := 0; i < len(grid); i += 2 {
		t1, t2 := grid[i], grid[i+1]

		if log != nil {
			log.WithFields(logrus.Fields{
				"index": i,
				"tiles": [2]int{t1, t2},
			}).Trace("Packing tiles")
		}

		if !FitsInBits(t1, tileBits) {
			return nil, &RangeError{Field: "tile", Index: i, Value: t1, Bits: tileBits}
		}
		if !FitsInBits(t2, tileBits) {
			return nil, &RangeError{Field: "tile", Index: i + 1, Value: t2, Bits: tileBits}
		}

		b[i>>1] = byte(t1)<<4 | byte(t2)
	}

	if !FitsInBits(meta.Clutter, clutterBits) {
		return nil, &RangeError{Field: "clutter level", Value: meta.Clutter, Bits: clutterBits}
	}

	b[tileBytes] = boolBit(meta.TopDoor, topDoorFlag) |
		boolBit(meta.LeftDoor, leftDoorFlag) |
		boolBit(meta.Corner, cornerFlag) |
		byte(meta.Clutter)

	return b, nil
}

// Chunk is a merged tile grid with its metadata. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Chunk struct {
	Tiles []int
	Metadata
}

// MarshalBinary packs the chunk
func (c *Chunk) MarshalBinary() ([]byte, error) {
	return Pack(c.Tiles, c.Metadata)
}

// MarshalBinaryLog packs the chunk, tracing each tile pair to log
func (c *Chunk) MarshalBinaryLog(log logrus.FieldLogger) ([]byte, error) {
	return pack(c.Tiles, c.Metadata, log)
}

// UnmarshalBinary unpacks the chunk from b
func (c *Chunk) UnmarshalBinary(b []byte) error {
	tiles, meta, err := Unpack(b)
	if err != nil {
		return err
	}
	c.Tiles, c.Metadata = tiles, meta
	return nil
}
