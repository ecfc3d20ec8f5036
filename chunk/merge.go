package chunk

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Merge overlays entities onto a copy of the background grid. Each entity
// replaces the tile in the cell containing its position, so a later entity
// wins over an earlier one in the same cell. Every step is logged at debug
// level to log, which may be nil.
func Merge(background []int, entities []Entity, log logrus.FieldLogger) ([]int, error) {
	if len(background) != Tiles {
		return nil, fmt.Errorf("%w: background has %d", ErrGridSize, len(background))
	}

	grid := make([]int, Tiles)
	copy(grid, background)

	for i, e := range entities {
		col, row := floorDiv(e.X, CellSize), floorDiv(e.Y, CellSize)
		idx := row*Width + col

		if log != nil {
			log.WithFields(logrus.Fields{
				"entity": e.ID,
				"row":    row,
				"col":    col,
				"index":  idx,
			}).Debug("Merging entity")
		}

		// A column past the edge would wrap into the next row
		if col < 0 || col >= Width || row < 0 || row >= Height || idx < 0 || idx >= Tiles {
			return nil, fmt.Errorf("%w: entity %d (id %d) at (%d, %d) maps to index %d", ErrOutOfBounds, i, e.ID, e.X, e.Y, idx)
		}

		grid[idx] = e.ID
	}

	return grid, nil
}
