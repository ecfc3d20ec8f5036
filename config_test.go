package podpacker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/podpacker/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	file := filepath.Join(dir, "podpacker.yml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadConfig(writeConfig(t, dir, `
output: src
banks:
  - input: levels/no_door
    suffix: "0"
  - name: corridors
    input: /abs/levels
    suffix: "1"
`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "src"), c.Output)
	assert.Equal(t, "c", c.Format)
	assert.Equal(t, DefaultSymbol, c.Symbol)
	assert.Equal(t, []Bank{
		{Name: "chunks0", Input: filepath.Join(dir, "levels", "no_door"), Suffix: "0"},
		{Name: "corridors", Input: "/abs/levels", Suffix: "1"},
	}, c.Banks)
	assert.Equal(t, []string{filepath.Join(dir, "levels", "no_door"), "/abs/levels"}, c.Inputs())
}

func TestLoadConfigErrors(t *testing.T) {
	for _, content := range []string{
		"banks: []",
		"format: asm\nbanks:\n  - input: x",
		"banks:\n  - suffix: \"0\"",
		"banks:\n  - input: x\n  - input: y",
		"banks: [",
	} {
		_, err := LoadConfig(writeConfig(t, t.TempDir(), content))
		assert.Error(t, err, content)
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestBuildConfig(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zero", "two", "src"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeLevel(t, filepath.Join(dir, "zero"), "a", filled(1), nil, chunk.Metadata{Clutter: 1})
	writeLevel(t, filepath.Join(dir, "two"), "a", filled(2), nil, chunk.Metadata{TopDoor: true, LeftDoor: true})
	writeLevel(t, filepath.Join(dir, "two"), "b", filled(2), nil, chunk.Metadata{TopDoor: true, LeftDoor: true})

	c, err := LoadConfig(writeConfig(t, dir, `
output: src
banks:
  - input: zero
    suffix: "0"
  - input: two
    suffix: "2"
`))
	require.NoError(t, err)

	require.NoError(t, newTestPacker(nil).BuildConfig(c))

	h, err := os.ReadFile(filepath.Join(dir, "src", "chunks2.h"))
	require.NoError(t, err)
	assert.Contains(t, string(h), "#define CHUNK_COUNT2 2")

	s, err := os.ReadFile(filepath.Join(dir, "src", "chunks0.c"))
	require.NoError(t, err)
	assert.Contains(t, string(s), "const UINT8 CHUNKS0[1][33]")
}

func TestBuildConfigAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zero", "two", "src"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeLevel(t, filepath.Join(dir, "zero"), "a", filled(1), nil, chunk.Metadata{})
	writeLevel(t, filepath.Join(dir, "two"), "a", filled(1), nil, chunk.Metadata{Clutter: 99})

	c, err := LoadConfig(writeConfig(t, dir, `
output: src
banks:
  - input: zero
    suffix: "0"
  - input: two
    suffix: "2"
`))
	require.NoError(t, err)

	err = newTestPacker(nil).BuildConfig(c)
	assert.ErrorIs(t, err, chunk.ErrRange)

	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildConfigStageFailure(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zero", "one", "src"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeLevel(t, filepath.Join(dir, "zero"), "a", filled(1), nil, chunk.Metadata{})
	writeLevel(t, filepath.Join(dir, "one"), "a", filled(2), nil, chunk.Metadata{})

	// The second bank writes into a directory that doesn't exist
	c, err := LoadConfig(writeConfig(t, dir, `
output: src
banks:
  - input: zero
    suffix: "0"
  - name: missing/chunks1
    input: one
    suffix: "1"
`))
	require.NoError(t, err)

	db, err := NewChunkDB(filepath.Join(dir, "podpacker.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, newTestPacker(db).BuildConfig(c))

	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The catalog isn't touched either
	list, err := db.List("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuildConfigDatabaseFailure(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zero", "one", "src"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeLevel(t, filepath.Join(dir, "zero"), "a", filled(1), nil, chunk.Metadata{})
	writeLevel(t, filepath.Join(dir, "one"), "a", filled(2), nil, chunk.Metadata{})

	c, err := LoadConfig(writeConfig(t, dir, `
output: src
banks:
  - input: zero
    suffix: "0"
  - input: one
    suffix: "1"
`))
	require.NoError(t, err)

	db, err := NewChunkDB(filepath.Join(dir, "podpacker.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.Error(t, newTestPacker(db).BuildConfig(c))

	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildConfigCatalog(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zero", "one", "src"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeLevel(t, filepath.Join(dir, "zero"), "a", filled(1), nil, chunk.Metadata{})
	writeLevel(t, filepath.Join(dir, "one"), "b", filled(2), nil, chunk.Metadata{})

	c, err := LoadConfig(writeConfig(t, dir, `
output: src
format: raw
banks:
  - input: zero
    suffix: "0"
  - input: one
    suffix: "1"
`))
	require.NoError(t, err)

	db, err := NewChunkDB(filepath.Join(dir, "podpacker.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, newTestPacker(db).BuildConfig(c))

	list, err := db.List("chunks1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)

	raw, err := os.ReadFile(filepath.Join(dir, "src", "chunks1.bin"))
	require.NoError(t, err)
	assert.Equal(t, list[0].Chunk, raw)
}
