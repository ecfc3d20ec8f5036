package podpacker

import (
	"crypto/sha1"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/podpacker/chunk"
	"github.com/bodgit/podpacker/ogmo"
	"github.com/sirupsen/logrus"
)

// Level is a single level ready to be merged and packed
type Level struct {
	Name       string
	SHA1       string
	Background []int
	Entities   []chunk.Entity
	chunk.Metadata
}

// Batch is a set of levels in clutter order along with their packed chunks.
// Records[i] is the chunk for Levels[i].
type Batch struct {
	Levels  []Level
	Records [][]byte
}

// Bytes returns the records concatenated together
func (b *Batch) Bytes() []byte {
	out := make([]byte, 0, len(b.Records)*chunk.Size)
	for _, r := range b.Records {
		out = append(out, r...)
	}
	return out
}

// SHA1 returns the checksum used to identify a level file
func SHA1(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

func levelFromFile(f *ogmo.File) (Level, error) {
	bg, err := f.Level.Background()
	if err != nil {
		return Level{}, fmt.Errorf("%s: %w", f.Path, err)
	}

	meta, err := f.Level.Metadata()
	if err != nil {
		return Level{}, fmt.Errorf("%s: %w", f.Path, err)
	}

	return Level{
		Name:       strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path)),
		SHA1:       SHA1(f.Raw),
		Background: bg,
		Entities:   f.Level.Entities(),
		Metadata:   meta,
	}, nil
}

// LoadLevels reads every level in dir, in file name order
func LoadLevels(dir string) ([]Level, error) {
	files, err := ogmo.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	levels := make([]Level, 0, len(files))
	for _, f := range files {
		l, err := levelFromFile(f)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}

	return levels, nil
}

// Build sorts the levels by clutter level, keeping levels with the same
// clutter level in their original order, then merges and packs each one.
// Any failure aborts the whole batch and no records are returned.
func (p *Packer) Build(levels []Level) (*Batch, error) {
	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Clutter < sorted[j].Clutter
	})

	records := make([][]byte, 0, len(sorted))
	for _, l := range sorted {
		logger := p.logger.WithField("level", l.Name)

		grid, err := chunk.Merge(l.Background, l.Entities, logger)
		if err != nil {
			logger.WithError(err).Error("Unable to merge entities")
			return nil, fmt.Errorf("%s: %w", l.Name, err)
		}

		c := chunk.Chunk{Tiles: grid, Metadata: l.Metadata}
		b, err := c.MarshalBinaryLog(logger)
		if err != nil {
			logger.WithError(err).Error("Unable to pack chunk")
			return nil, fmt.Errorf("%s: %w", l.Name, err)
		}

		logger.WithFields(logrus.Fields{
			"clutter": l.Clutter,
			"chunk":   fmt.Sprintf("%X", b),
		}).Debug("Packed level")

		records = append(records, b)
	}

	return &Batch{
		Levels:  sorted,
		Records: records,
	}, nil
}

// Pack loads and builds every level in dir
func (p *Packer) Pack(dir string) (*Batch, error) {
	levels, err := LoadLevels(dir)
	if err != nil {
		p.logger.WithError(err).WithField("input", dir).Error("Unable to load levels")
		return nil, err
	}

	return p.Build(levels)
}
