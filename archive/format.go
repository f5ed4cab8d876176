package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/meigma/assetpack/internal/bytesutil"
	"github.com/meigma/assetpack/internal/crypt"
)

// Layout constants.
const (
	// MagicSize is the width of the header magic field.
	MagicSize = 8

	// NameSize is the width of the entry name field.
	NameSize = 52

	// HeaderSize is the encoded size of a Header.
	HeaderSize = MagicSize + 4

	// RecordSize is the encoded size of one entry record.
	RecordSize = NameSize + 3*4

	// BlockSize is the payload cipher block size.
	BlockSize = crypt.BlockSize

	// DefaultExtension selects package files during Scan.
	DefaultExtension = ".pkg"
)

// Magic is the tag written at the start of every package.
var Magic = [MagicSize]byte{'P', 'K', 'G', 'I', 'N', 'F', 'O', 0}

// Header is the fixed package header.
type Header struct {
	Magic [MagicSize]byte
	Count uint32
}

// HasMagic reports whether the header carries the standard tag.
func (h Header) HasMagic() bool {
	return h.Magic == Magic
}

// TableEnd returns the offset of the first byte after the entry table.
func (h Header) TableEnd() int64 {
	return HeaderSize + int64(h.Count)*RecordSize
}

// record is the on-disk entry layout.
type record struct {
	Name         [NameSize]byte
	Offset       uint32
	StoredLength uint32
	RealLength   uint32
}

// Entry locates one asset inside a package.
type Entry struct {
	// Name is the entry name as stored, NUL padding removed.
	Name string

	// Archive is the path of the package file holding the payload.
	Archive string

	// Offset is the byte offset of the payload within the package.
	Offset uint32

	// StoredLength is the ciphertext length, a multiple of BlockSize.
	StoredLength uint32

	// RealLength is the plaintext length kept after decryption.
	RealLength uint32
}

// Key returns the case-insensitive lookup key of the entry.
func (e Entry) Key() string {
	return Key(e.Name)
}

// ParseHeader reads a package header from r.
func ParseHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, readErr("header", err)
	}
	return h, nil
}

// ParseEntries reads count entry records from r. archivePath is recorded in
// every returned Entry.
func ParseEntries(r io.Reader, archivePath string, count uint32) ([]Entry, error) {
	entries := make([]Entry, 0, min(count, 4096))
	for i := range count {
		var rec record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, readErr(fmt.Sprintf("entry %d", i), err)
		}
		name := bytesutil.TrimNUL(rec.Name[:])
		if !utf8.Valid(name) {
			return nil, fmt.Errorf("%w: entry %d: name is not UTF-8", ErrFormat, i)
		}
		entries = append(entries, Entry{
			Name:         string(name),
			Archive:      archivePath,
			Offset:       rec.Offset,
			StoredLength: rec.StoredLength,
			RealLength:   rec.RealLength,
		})
	}
	return entries, nil
}

// encodeRecord renders e in its on-disk form.
func encodeRecord(e Entry) (record, error) {
	name, err := bytesutil.Expand([]byte(e.Name), NameSize)
	if err != nil {
		return record{}, fmt.Errorf("%w: %q is %d bytes, limit %d", ErrNameTooLong, e.Name, len(e.Name), NameSize)
	}
	rec := record{
		Offset:       e.Offset,
		StoredLength: e.StoredLength,
		RealLength:   e.RealLength,
	}
	copy(rec.Name[:], name)
	return rec, nil
}

// readErr maps truncated reads to ErrFormat and everything else to ErrIO.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrFormat, what)
	}
	return fmt.Errorf("%w: read %s: %v", ErrIO, what, err)
}
