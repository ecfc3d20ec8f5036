package podpacker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bodgit/podpacker/chunk"
	"github.com/bodgit/podpacker/csource"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSymbol is the base name of the generated C array
	DefaultSymbol = "CHUNKS"
	// DefaultName is the base file name of the generated output
	DefaultName = "chunks"
)

var errNoBanks = errors.New("config: no banks defined")

// Bank is one set of levels written to its own array
type Bank struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Suffix string `yaml:"suffix"`
}

// Config describes a project with one or more banks
type Config struct {
	Output string `yaml:"output"`
	Format string `yaml:"format"`
	Symbol string `yaml:"symbol"`
	Banks  []Bank `yaml:"banks"`

	format csource.Format
}

// LoadConfig reads the project file. Relative paths are resolved against
// the directory containing it.
func LoadConfig(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", file, err)
	}

	if err := c.resolve(filepath.Dir(file)); err != nil {
		return nil, fmt.Errorf("config: %s: %w", file, err)
	}

	return &c, nil
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (c *Config) resolve(base string) error {
	if len(c.Banks) == 0 {
		return errNoBanks
	}

	if c.Output == "" {
		c.Output = "."
	}
	c.Output = resolvePath(base, c.Output)

	if c.Format == "" {
		c.Format = csource.C.String()
	}
	f, err := csource.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	c.format = f

	if c.Symbol == "" {
		c.Symbol = DefaultSymbol
	}

	names := make(map[string]struct{}, len(c.Banks))
	for i := range c.Banks {
		b := &c.Banks[i]
		if b.Input == "" {
			return fmt.Errorf("bank %d has no input", i)
		}
		b.Input = resolvePath(base, b.Input)
		if b.Name == "" {
			b.Name = DefaultName + b.Suffix
		}
		if _, ok := names[b.Name]; ok {
			return fmt.Errorf("bank %q defined twice", b.Name)
		}
		names[b.Name] = struct{}{}
	}

	return nil
}

// BuildConfig packs every bank in the project and only once they have all
// succeeded and been staged alongside their final names updates the
// database and moves the files into place.
func (p *Packer) BuildConfig(c *Config) error {
	batches := make([]*Batch, len(c.Banks))
	for i, bank := range c.Banks {
		b, err := p.Pack(bank.Input)
		if err != nil {
			return fmt.Errorf("bank %s: %w", bank.Name, err)
		}
		batches[i] = b
	}

	s := new(csource.Stage)
	defer s.Discard()

	names := make([]string, len(c.Banks))
	for i, bank := range c.Banks {
		names[i] = filepath.Base(c.base(bank))
		symbols := csource.NewNames(c.Symbol, bank.Suffix)
		if err := p.stage(s, c.base(bank), c.format, symbols, chunk.Size, batches[i]); err != nil {
			p.logger.WithError(err).WithField("bank", bank.Name).Error("Unable to stage output")
			return fmt.Errorf("bank %s: %w", bank.Name, err)
		}
	}

	if p.db != nil {
		if err := p.db.ReplaceBanks(names, batches); err != nil {
			return err
		}
	}

	if err := s.Commit(); err != nil {
		return err
	}

	for i, bank := range c.Banks {
		p.logWrite(c.base(bank), c.format, batches[i])
	}

	return nil
}

func (c *Config) base(bank Bank) string {
	return filepath.Join(c.Output, bank.Name)
}

// Inputs returns the input directory of every bank
func (c *Config) Inputs() []string {
	dirs := make([]string, 0, len(c.Banks))
	for _, b := range c.Banks {
		dirs = append(dirs, b.Input)
	}
	return dirs
}
