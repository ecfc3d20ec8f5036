/*
Package podpacker converts Ogmo Editor levels into the packed chunk arrays
used by the Pineapple of Doom ROM.

Each level is merged into a single 8 by 8 tile grid, packed into 33 bytes by
the chunk package and the resulting records are ordered by clutter level so
the ROM can pick progressively busier chunks.
*/
package podpacker

import (
	"path/filepath"

	"github.com/bodgit/podpacker/csource"
	"github.com/sirupsen/logrus"
)

// Packer builds batches of chunks. Diagnostics are written to the logger,
// never to the generated output.
type Packer struct {
	db     *ChunkDB
	logger logrus.FieldLogger
}

// New returns a Packer logging to logger. If db is not nil, every batch
// written with Write is also recorded in it.
func New(db *ChunkDB, logger logrus.FieldLogger) *Packer {
	return &Packer{
		db:     db,
		logger: logger,
	}
}

func (p *Packer) stage(s *csource.Stage, base string, format csource.Format, names csource.Names, width int, b *Batch) error {
	files, err := csource.Render(format, names, width, b.Records)
	if err != nil {
		return err
	}

	return s.Add(base, files)
}

func (p *Packer) logWrite(base string, format csource.Format, b *Batch) {
	p.logger.WithFields(logrus.Fields{
		"output":  base,
		"format":  format,
		"records": len(b.Records),
	}).Info("Wrote records")
}

// Write renders the batch in the given format and writes it next to base,
// e.g. base.c and base.h. Each record must be width bytes long. The batch
// is recorded in the database under the base name of base before the files
// are moved into place, so nothing is written if rendering, staging or
// recording fails.
func (p *Packer) Write(base string, format csource.Format, names csource.Names, width int, b *Batch) error {
	s := new(csource.Stage)
	defer s.Discard()

	if err := p.stage(s, base, format, names, width, b); err != nil {
		return err
	}

	if p.db != nil {
		if err := p.db.Replace(filepath.Base(base), b); err != nil {
			return err
		}
	}

	if err := s.Commit(); err != nil {
		return err
	}

	p.logWrite(base, format, b)

	return nil
}
