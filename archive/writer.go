package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meigma/assetpack/internal/crypt"
	"github.com/meigma/assetpack/internal/sizing"
)

// Writer builds a package. Entries are buffered in memory and written on
// Close: header, entry table, then payloads in insertion order.
type Writer struct {
	w       io.Writer
	magic   [MagicSize]byte
	entries []pending
	keys    map[string]struct{}
	closed  bool
}

type pending struct {
	name       string
	ciphertext []byte
	realLength uint32
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMagic overrides the header tag. Tags longer than MagicSize bytes are
// truncated.
func WithMagic(tag string) WriterOption {
	return func(w *Writer) {
		w.magic = [MagicSize]byte{}
		copy(w.magic[:], tag)
	}
}

// NewWriter creates a Writer that emits the package to w on Close.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	pw := &Writer{
		w:     w,
		magic: Magic,
		keys:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(pw)
	}
	return pw
}

// Add encrypts data and queues it under name.
func (w *Writer) Add(name string, data []byte) error {
	if w.closed {
		return errors.New("archive: writer is closed")
	}
	name = NormalizeName(name)
	if name == "." || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: invalid entry name %q", ErrFormat, name)
	}
	if len(name) > NameSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrNameTooLong, name, len(name), NameSize)
	}
	key := Key(name)
	if _, ok := w.keys[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	realLength, err := sizing.ToUint32(len(data), ErrSizeOverflow)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}

	w.keys[key] = struct{}{}
	w.entries = append(w.entries, pending{
		name:       name,
		ciphertext: crypt.Encrypt(data),
		realLength: realLength,
	})
	return nil
}

// Len returns the number of queued entries.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Close writes the package. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	count, err := sizing.ToUint32(len(w.entries), ErrSizeOverflow)
	if err != nil {
		return err
	}
	header := Header{Magic: w.magic, Count: count}

	offset, err := sizing.ToUint32(int(header.TableEnd()), ErrSizeOverflow)
	if err != nil {
		return err
	}
	records := make([]record, 0, len(w.entries))
	for _, p := range w.entries {
		stored, err := sizing.ToUint32(len(p.ciphertext), ErrSizeOverflow)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
		rec, err := encodeRecord(Entry{
			Name:         p.name,
			Offset:       offset,
			StoredLength: stored,
			RealLength:   p.realLength,
		})
		if err != nil {
			return err
		}
		records = append(records, rec)

		next, ok := sizing.AddUint32(offset, stored)
		if !ok {
			return fmt.Errorf("write %s: %w", p.name, ErrSizeOverflow)
		}
		offset = next
	}

	if err := binary.Write(w.w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w.w, binary.LittleEndian, records); err != nil {
		return fmt.Errorf("write entry table: %w", err)
	}
	for _, p := range w.entries {
		if _, err := w.w.Write(p.ciphertext); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return nil
}
