// Package loose reads override files from the content root.
//
// A loose file replaces the packaged entry of the same name. A name may be
// stored as is, or zstd-compressed with a ".zst" suffix; the plain file wins
// when both exist.
package loose

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/meigma/assetpack/internal/sizing"
)

// CompressedSuffix marks a zstd-compressed loose file.
const CompressedSuffix = ".zst"

// Source says where loose content came from.
type Source string

const (
	SourcePlain      Source = "file"
	SourceCompressed Source = "file+zstd"
)

// ErrTooLarge is returned when a loose file exceeds the size limit.
var ErrTooLarge = errors.New("loose: file too large")

// Dir reads loose files under a root directory. It is safe for concurrent
// use.
type Dir struct {
	root     *os.Root
	maxSize  uint64
	decoders *decoderPool
}

// Open opens the loose root at path. A missing path yields a Dir that finds
// nothing. maxSize bounds the decoded size of any file; 0 means no limit.
func Open(path string, maxSize uint64) (*Dir, error) {
	d := &Dir{maxSize: maxSize, decoders: newDecoderPool(maxSize)}
	root, err := os.OpenRoot(path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	d.root = root
	return d, nil
}

// Close releases the root handle.
func (d *Dir) Close() error {
	if d.root == nil {
		return nil
	}
	return d.root.Close()
}

// Exists reports whether name or its compressed form is present.
func (d *Dir) Exists(name string) bool {
	if d.root == nil || !fs.ValidPath(name) {
		return false
	}
	for _, n := range []string{name, name + CompressedSuffix} {
		if info, err := d.root.Stat(n); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// Read returns the content of name, trying the plain file first and then
// the compressed one. ok is false when neither exists. Names that are not
// valid slash-separated relative paths never match.
func (d *Dir) Read(name string) (data []byte, src Source, ok bool, err error) {
	if d.root == nil || !fs.ValidPath(name) {
		return nil, "", false, nil
	}

	data, ok, err = d.readPlain(name)
	if ok || err != nil {
		return data, SourcePlain, ok, err
	}
	data, ok, err = d.readCompressed(name + CompressedSuffix)
	return data, SourceCompressed, ok, err
}

func (d *Dir) open(name string) (*os.File, bool, error) {
	f, err := d.root.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, false, nil
	}
	return f, true, nil
}

func (d *Dir) readPlain(name string) ([]byte, bool, error) {
	f, ok, err := d.open(name)
	if !ok {
		return nil, false, err
	}
	defer f.Close()

	data, err := d.readAll(f)
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", name, err)
	}
	return data, true, nil
}

func (d *Dir) readCompressed(name string) ([]byte, bool, error) {
	f, ok, err := d.open(name)
	if !ok {
		return nil, false, err
	}
	defer f.Close()

	dec, release, err := d.decoders.get(f)
	if err != nil {
		return nil, true, fmt.Errorf("decompress %s: %w", name, err)
	}
	defer release()

	data, err := d.readAll(dec)
	if err != nil {
		return nil, true, fmt.Errorf("decompress %s: %w", name, err)
	}
	return data, true, nil
}

func (d *Dir) readAll(r io.Reader) ([]byte, error) {
	if d.maxSize == 0 {
		return io.ReadAll(r)
	}
	return sizing.ReadAllWithLimit(r, d.maxSize, ErrTooLarge)
}
