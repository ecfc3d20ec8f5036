package chunk

func upperNibble(b byte) int {
	return int(b >> 4)
}

func lowerNibble(b byte) int {
	return int(b & 0x0f)
}

// Unpack decodes a Size byte chunk back into its tile grid and metadata.
// Any bytes past Size are ignored.
func Unpack(b []byte) ([]int, Metadata, error) {
	if len(b) < Size {
		return nil, Metadata{}, errShort
	}

	grid := make([]int, Tiles)
	for i, v := range b[:tileBytes] {
		grid[i<<1] = upperNibble(v)
		grid[i<<1+1] = lowerNibble(v)
	}

	last := b[tileBytes]

	return grid, Metadata{
		TopDoor:  last&topDoorFlag != 0,
		LeftDoor: last&leftDoorFlag != 0,
		Corner:   last&cornerFlag != 0,
		Clutter:  int(last & clutterMask),
	}, nil
}
