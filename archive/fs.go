package archive

import (
	"bytes"
	"io/fs"
	"path"
	"time"
)

// Interface compliance.
var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
)

// FS exposes an Index as a read-only, flat fs.FS. Names are resolved with
// the same case-insensitive rules as Index.Lookup. Directories are not
// synthesized.
type FS struct {
	idx    *Index
	reader *Reader
}

// NewFS returns an FS reading entries of idx through r.
func NewFS(idx *Index, r *Reader) *FS {
	return &FS{idx: idx, reader: r}
}

func (f *FS) lookup(op, name string) (Entry, error) {
	norm := NormalizeName(name)
	if !fs.ValidPath(norm) || norm == "." {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	e, ok := f.idx.Lookup(norm)
	if !ok {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return e, nil
}

// Open implements fs.FS. The entry is decrypted in full before Open returns.
func (f *FS) Open(name string) (fs.File, error) {
	e, err := f.lookup("open", name)
	if err != nil {
		return nil, err
	}
	data, err := f.reader.Read(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &entryFile{Reader: bytes.NewReader(data), info: entryInfo{e}}, nil
}

// ReadFile implements fs.ReadFileFS.
func (f *FS) ReadFile(name string) ([]byte, error) {
	e, err := f.lookup("readfile", name)
	if err != nil {
		return nil, err
	}
	data, err := f.reader.Read(e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// Stat implements fs.StatFS without decrypting the entry.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	e, err := f.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return entryInfo{e}, nil
}

type entryFile struct {
	*bytes.Reader
	info entryInfo
}

func (f *entryFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *entryFile) Close() error               { return nil }

type entryInfo struct {
	e Entry
}

func (i entryInfo) Name() string       { return path.Base(NormalizeName(i.e.Name)) }
func (i entryInfo) Size() int64        { return int64(i.e.RealLength) }
func (i entryInfo) Mode() fs.FileMode  { return 0o444 }
func (i entryInfo) ModTime() time.Time { return time.Time{} }
func (i entryInfo) IsDir() bool        { return false }
func (i entryInfo) Sys() any           { return i.e }
