/*
Package csource writes byte records either as raw binary or as a GBDK C
source and header pair declaring a fixed-size two-dimensional UINT8 array.
*/
package csource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format selects how records are written
type Format int

const (
	// Raw writes the records back to back with no framing
	Raw Format = iota
	// C writes a .c and .h pair
	C
)

const banner = "This file was generated by podpacker. DO NOT EDIT."

var (
	errFormat = errors.New("csource: unknown format")
	errWidth  = errors.New("csource: record has the wrong length")
)

// ParseFormat returns the Format named by s, either "raw" or "c"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "raw":
		return Raw, nil
	case "c":
		return C, nil
	default:
		return Raw, fmt.Errorf("%w: %q", errFormat, s)
	}
}

func (f Format) String() string {
	switch f {
	case Raw:
		return "raw"
	case C:
		return "c"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Names are the C identifiers used for an array
type Names struct {
	Array string
	Count string
	Guard string
}

// NewNames derives the array, count and include guard names from a base
// symbol and a bank suffix, so "CHUNKS" and "2" give CHUNKS2, CHUNK_COUNT2
// and _CHUNKS2_H.
func NewNames(symbol, suffix string) Names {
	symbol = strings.ToUpper(symbol)
	return Names{
		Array: symbol + suffix,
		Count: strings.TrimSuffix(symbol, "S") + "_COUNT" + suffix,
		Guard: "_" + symbol + suffix + "_H",
	}
}

func checkWidth(records [][]byte, width int) error {
	if width < 1 {
		return fmt.Errorf("%w: width %d", errWidth, width)
	}
	for i, r := range records {
		if len(r) != width {
			return fmt.Errorf("%w: record %d is %d bytes, want %d", errWidth, i, len(r), width)
		}
	}
	return nil
}

// WriteRaw writes each record to w in order
func WriteRaw(w io.Writer, records [][]byte) error {
	for _, r := range records {
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeader writes a header declaring the array and its record count
func WriteHeader(w io.Writer, names Names, count, width int) error {
	_, err := fmt.Fprintf(w, `// %s

#ifndef %s
#define %s

#include <types.h>

#define %s %d

extern const UINT8 %s[][%d];

#endif
`, banner, names.Guard, names.Guard, names.Count, count, names.Array, width)
	return err
}

func hexRecord(r []byte) string {
	s := make([]string, len(r))
	for i, b := range r {
		s[i] = fmt.Sprintf("0x%02X", b)
	}
	return strings.Join(s, ", ")
}

// WriteSource writes the array definition, one record per line. Every
// record must be width bytes long. C has no zero length arrays, so an empty
// array gets a single zeroed row; the count in the header stays at zero.
func WriteSource(w io.Writer, names Names, width int, records [][]byte) error {
	if err := checkWidth(records, width); err != nil {
		return err
	}

	rows := records
	if len(rows) == 0 {
		rows = [][]byte{make([]byte, width)}
	}

	b := new(bytes.Buffer)
	fmt.Fprintf(b, "// %s\n\n#include <types.h>\n\n", banner)
	fmt.Fprintf(b, "const UINT8 %s[%d][%d] = {\n", names.Array, len(rows), width)
	for _, r := range rows {
		fmt.Fprintf(b, "\t{ %s },\n", hexRecord(r))
	}
	b.WriteString("};\n")

	_, err := w.Write(b.Bytes())
	return err
}

// Render returns the file contents for records keyed by file extension.
// Raw gives a single ".bin" entry, C gives ".c" and ".h" entries. Every
// record must be width bytes long.
func Render(format Format, names Names, width int, records [][]byte) (map[string][]byte, error) {
	if err := checkWidth(records, width); err != nil {
		return nil, err
	}

	files := make(map[string][]byte)

	switch format {
	case Raw:
		b := new(bytes.Buffer)
		if err := WriteRaw(b, records); err != nil {
			return nil, err
		}
		files[".bin"] = b.Bytes()
	case C:
		h := new(bytes.Buffer)
		if err := WriteHeader(h, names, len(records), width); err != nil {
			return nil, err
		}
		files[".h"] = h.Bytes()

		c := new(bytes.Buffer)
		if err := WriteSource(c, names, width, records); err != nil {
			return nil, err
		}
		files[".c"] = c.Bytes()
	default:
		return nil, fmt.Errorf("%w: %v", errFormat, format)
	}

	return files, nil
}

type staged struct {
	tmp  string
	dest string
}

// Stage holds files written to temporary names that have not yet been
// moved into place. Files can be staged for any number of outputs and are
// then either all committed or all discarded.
type Stage struct {
	files []staged
}

// Add writes the rendered files to temporary files in the directory of
// base. They are renamed to base plus each extension by Commit.
func (s *Stage) Add(base string, files map[string][]byte) error {
	dir := filepath.Dir(base)

	exts := make([]string, 0, len(files))
	for ext := range files {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		f, err := os.CreateTemp(dir, "."+filepath.Base(base)+"*"+ext)
		if err != nil {
			return err
		}
		s.files = append(s.files, staged{tmp: f.Name(), dest: base + ext})

		if err := f.Chmod(0o644); err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(files[ext]); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}

// Commit renames every staged file into place
func (s *Stage) Commit() error {
	for len(s.files) > 0 {
		f := s.files[0]
		if err := os.Rename(f.tmp, f.dest); err != nil {
			return err
		}
		s.files = s.files[1:]
	}
	return nil
}

// Discard removes any staged files that haven't been committed. It is safe
// to call after Commit.
func (s *Stage) Discard() {
	for _, f := range s.files {
		os.Remove(f.tmp)
	}
	s.files = nil
}

// WriteFiles writes the rendered files as base plus each extension. Every
// file is first written to a temporary file in the same directory and only
// renamed into place once all of them have been written successfully.
func WriteFiles(base string, files map[string][]byte) error {
	s := new(Stage)
	defer s.Discard()

	if err := s.Add(base, files); err != nil {
		return err
	}

	return s.Commit()
}
