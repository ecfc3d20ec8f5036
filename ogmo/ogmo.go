/*
Package ogmo reads levels saved by Ogmo Editor 3.

Only the fields needed to build a chunk are decoded: the level values, the
first tile layer (the background) and the first entity layer.
*/
package ogmo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/bodgit/podpacker/chunk"
)

// Ext is the file extension used by Ogmo level files
const Ext = ".json"

var (
	// ErrNoBackground is returned when a level has no tile layer
	ErrNoBackground = errors.New("ogmo: no background layer")
	// ErrClutter is returned when a clutter level can't be used as a sort key
	ErrClutter = errors.New("ogmo: invalid clutter level")
)

// Values are the custom level values defined in the Ogmo project
type Values struct {
	TopDoor      bool    `json:"top_door"`
	LeftDoor     bool    `json:"left_door"`
	Corner       bool    `json:"corner"`
	ClutterLevel float64 `json:"clutter_level"`
}

// Entity is a placed entity
type Entity struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Values struct {
		ID int `json:"id"`
	} `json:"values"`
}

// Layer is either a tile layer, with Data set, or an entity layer, with
// Entities set
type Layer struct {
	Name     string   `json:"name"`
	Data     []int    `json:"data"`
	Entities []Entity `json:"entities"`
}

// Level is a decoded level file
type Level struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Values Values  `json:"values"`
	Layers []Layer `json:"layers"`
}

// Decode reads a level from r
func Decode(r io.Reader) (*Level, error) {
	var l Level
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Background returns the tile ids of the first tile layer
func (l *Level) Background() ([]int, error) {
	for _, layer := range l.Layers {
		if layer.Data != nil {
			return layer.Data, nil
		}
	}
	return nil, ErrNoBackground
}

// Entities returns the entities of the first entity layer, converted to
// chunk entities. A level without an entity layer has none.
func (l *Level) Entities() []chunk.Entity {
	for _, layer := range l.Layers {
		if layer.Entities == nil {
			continue
		}
		entities := make([]chunk.Entity, 0, len(layer.Entities))
		for _, e := range layer.Entities {
			entities = append(entities, chunk.Entity{X: e.X, Y: e.Y, ID: e.Values.ID})
		}
		return entities
	}
	return nil
}

// Metadata converts the level values to chunk metadata. The clutter level
// must be a finite whole number; range checking is left to the packer.
func (l *Level) Metadata() (chunk.Metadata, error) {
	c := l.Values.ClutterLevel
	if math.IsNaN(c) || math.IsInf(c, 0) || c != math.Trunc(c) || math.Abs(c) > math.MaxInt32 {
		return chunk.Metadata{}, fmt.Errorf("%w: %v", ErrClutter, c)
	}
	return chunk.Metadata{
		TopDoor:  l.Values.TopDoor,
		LeftDoor: l.Values.LeftDoor,
		Corner:   l.Values.Corner,
		Clutter:  int(c),
	}, nil
}

// File is a level along with the file it was read from
type File struct {
	Path  string
	Level *Level
	Raw   []byte
}

// ReadFile decodes the level stored in file
func ReadFile(file string) (*File, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var l Level
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return &File{Path: file, Level: &l, Raw: b}, nil
}

// Glob returns the level files in dir, ordered by name. Hidden files are
// ignored.
func Glob(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		// Ignore any hidden files, otherwise we end up fighting with editor swap files, etc.
		if e.Name()[0] == '.' || !e.Type().IsRegular() {
			continue
		}
		if filepath.Ext(e.Name()) != Ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	return files, nil
}

// ReadDir decodes every level file in dir, in the order returned by Glob.
// The first file that can't be read or decoded aborts the whole read.
func ReadDir(dir string) ([]*File, error) {
	files, err := Glob(dir)
	if err != nil {
		return nil, err
	}

	levels := make([]*File, 0, len(files))
	for _, file := range files {
		f, err := ReadFile(file)
		if err != nil {
			return nil, err
		}
		levels = append(levels, f)
	}

	return levels, nil
}
