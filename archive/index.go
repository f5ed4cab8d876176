package archive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Index maps asset names to their location across every scanned package.
//
// Lookups are case-insensitive. An Index is immutable once built and safe
// for concurrent use.
type Index struct {
	entries  map[string]Entry
	archives []string
}

type scanConfig struct {
	extension   string
	strictMagic bool
	logger      *slog.Logger
}

// Option configures Scan.
type Option func(*scanConfig)

// WithExtension selects which files are treated as packages (default ".pkg").
// Matching ignores case.
func WithExtension(ext string) Option {
	return func(c *scanConfig) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extension = ext
	}
}

// WithStrictMagic rejects packages whose header does not carry [Magic].
// By default the tag is not checked.
func WithStrictMagic(strict bool) Option {
	return func(c *scanConfig) {
		c.strictMagic = strict
	}
}

// WithLogger sets the logger used while scanning.
func WithLogger(logger *slog.Logger) Option {
	return func(c *scanConfig) {
		c.logger = logger
	}
}

func (c *scanConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// NewIndex builds an index from explicit entries. Later entries override
// earlier entries with the same key.
func NewIndex(entries ...Entry) *Index {
	idx := &Index{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		idx.insert(e)
	}
	return idx
}

// Scan walks root recursively and indexes every package file found, in
// lexical path order. Entries from packages scanned later override entries
// of the same name from earlier ones.
//
// A missing root yields an empty index. Any package that cannot be read or
// parsed aborts the scan.
func Scan(ctx context.Context, root string, opts ...Option) (*Index, error) {
	cfg := scanConfig{extension: DefaultExtension}
	for _, opt := range opts {
		opt(&cfg)
	}

	idx := NewIndex()

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.log().Debug("package root missing, index is empty", "root", root)
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrIO, root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("%w: %v", ErrIO, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), cfg.extension) {
			return nil
		}

		entries, err := ReadPackage(path, WithStrictMagic(cfg.strictMagic), WithLogger(cfg.logger))
		if err != nil {
			return err
		}
		for _, e := range entries {
			if prev, ok := idx.entries[e.Key()]; ok {
				cfg.log().Debug("entry overridden", "name", e.Name, "previous", prev.Archive, "package", path)
			}
			idx.insert(e)
		}
		idx.archives = append(idx.archives, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	cfg.log().Info("package index built", "root", root, "packages", len(idx.archives), "entries", idx.Len())
	return idx, nil
}

// ReadPackage reads the header and entry table of a single package file.
//
// A truncated header or table, or a declared entry count whose table cannot
// fit in the file, is ErrFormat. Only WithStrictMagic and WithLogger apply.
func ReadPackage(path string, opts ...Option) ([]Entry, error) {
	cfg := scanConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path) //nolint:gosec // package paths come from the scanned tree
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	br := bufio.NewReader(f)
	h, err := ParseHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !h.HasMagic() {
		if cfg.strictMagic {
			return nil, fmt.Errorf("%w: %s: unexpected magic %q", ErrFormat, path, h.Magic[:])
		}
		cfg.log().Debug("package magic mismatch", "package", path, "magic", string(h.Magic[:]))
	}
	if h.TableEnd() > info.Size() {
		return nil, fmt.Errorf("%w: %s: %d entries do not fit in %d bytes", ErrFormat, path, h.Count, info.Size())
	}

	entries, err := ParseEntries(br, path, h.Count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func (idx *Index) insert(e Entry) {
	idx.entries[e.Key()] = e
}

// Lookup returns the entry for name, ignoring case and slash style.
func (idx *Index) Lookup(name string) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	e, ok := idx.entries[Key(name)]
	return e, ok
}

// Len returns the number of distinct entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Archives returns the scanned package paths in scan order.
func (idx *Index) Archives() []string {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.archives)
}

// Entries returns an iterator over all entries sorted by key.
func (idx *Index) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if idx == nil {
			return
		}
		keys := make([]string, 0, len(idx.entries))
		for k := range idx.entries {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !yield(idx.entries[k]) {
				return
			}
		}
	}
}
