package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/meigma/assetpack/internal/crypt"
	"github.com/meigma/assetpack/internal/sizing"
)

// DefaultMaxEntrySize is the default limit on an entry's stored length (256MB).
const DefaultMaxEntrySize = 256 << 20

// Reader decrypts entries, keeping one open handle per package file.
// It is safe for concurrent use.
type Reader struct {
	mu           sync.Mutex
	files        map[string]*os.File
	maxEntrySize uint32
	logger       *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxEntrySize limits the stored length of a single entry.
// Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint32) ReaderOption {
	return func(r *Reader) {
		r.maxEntrySize = limit
	}
}

// WithReaderLogger sets the logger used by the reader.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		files:        make(map[string]*os.File),
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Read returns the decrypted, unpadded content of e.
func (r *Reader) Read(e Entry) ([]byte, error) {
	f, err := r.file(e.Archive)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", e.Name, ErrIO, err)
	}
	return readEntry(f, info.Size(), e, r.maxEntrySize)
}

// Close closes every package handle opened by the reader.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for path, f := range r.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
		delete(r.files, path)
	}
	return errors.Join(errs...)
}

func (r *Reader) file(path string) (*os.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[path]; ok {
		return f, nil
	}
	f, err := os.Open(path) //nolint:gosec // package paths come from the index
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	r.log().Debug("package opened", "package", path)
	r.files[path] = f
	return f, nil
}

// Read opens e's package, decrypts the entry and closes the package again.
func Read(e Entry) ([]byte, error) {
	f, err := os.Open(e.Archive)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", e.Name, ErrIO, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", e.Name, ErrIO, err)
	}
	return readEntry(f, info.Size(), e, DefaultMaxEntrySize)
}

// readEntry reads exactly e.StoredLength bytes at e.Offset, decrypts them
// and truncates the result to e.RealLength.
func readEntry(src io.ReaderAt, srcSize int64, e Entry, maxEntrySize uint32) ([]byte, error) {
	if e.RealLength > e.StoredLength {
		return nil, fmt.Errorf("read %s: %w: real length %d exceeds stored length %d",
			e.Name, ErrFormat, e.RealLength, e.StoredLength)
	}
	if maxEntrySize > 0 && e.StoredLength > maxEntrySize {
		return nil, fmt.Errorf("read %s: %w: stored length %d exceeds limit %d",
			e.Name, ErrSizeOverflow, e.StoredLength, maxEntrySize)
	}
	if end := sizing.End(e.Offset, e.StoredLength); end > srcSize {
		return nil, fmt.Errorf("read %s: %w: entry ends at %d past end of package (%d bytes)",
			e.Name, ErrIO, end, srcSize)
	}

	n, err := sizing.ToInt(e.StoredLength, ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	buf := make([]byte, n)
	section := io.NewSectionReader(src, int64(e.Offset), int64(e.StoredLength))
	if _, err := io.ReadFull(section, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", e.Name, ErrIO, err)
	}

	plain, err := crypt.Decrypt(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", e.Name, ErrCrypto, err)
	}
	return plain[:e.RealLength], nil
}
