package assetpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/assetpack/anim"
	"github.com/meigma/assetpack/apng"
	"github.com/meigma/assetpack/archive"
	"github.com/meigma/assetpack/cache"
	"github.com/meigma/assetpack/internal/loose"
	"github.com/meigma/assetpack/internal/pixel"
)

// sourceCache is reported by Asset.Source for cache hits.
const sourceCache = "cache"

// Loader resolves, decodes, and caches assets. It is safe for concurrent
// use; concurrent loads of the same name share one read and decode.
type Loader struct {
	root   string
	index  *archive.Index
	reader *archive.Reader
	loose  *loose.Dir

	cache       *cache.Cache
	ownCache    bool
	cacheBudget uint64
	group       singleflight.Group

	premultiply     bool
	effects         EffectFactory
	decodeAnimation AnimationDecoder
	extension       string
	strictMagic     bool
	maxAssetSize    uint32
	preloadWorkers  int
	logger          *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a Loader over the content directory root. Every package
// under root is indexed before New returns; a missing root yields a loader
// that finds nothing.
func New(ctx context.Context, root string, opts ...Option) (*Loader, error) {
	l := &Loader{
		root:            root,
		cacheBudget:     cache.DefaultBudget,
		premultiply:     true,
		effects:         NewRawEffect,
		decodeAnimation: apng.Decode,
		extension:       archive.DefaultExtension,
		maxAssetSize:    DefaultMaxAssetSize,
		preloadWorkers:  4,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	idx, err := archive.Scan(ctx, root,
		archive.WithExtension(l.extension),
		archive.WithStrictMagic(l.strictMagic),
		archive.WithLogger(l.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	dir, err := loose.Open(root, uint64(l.maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", root, ErrIO, err)
	}

	l.index = idx
	l.loose = dir
	l.reader = archive.NewReader(
		archive.WithMaxEntrySize(l.maxAssetSize),
		archive.WithReaderLogger(l.logger),
	)
	if l.cache == nil {
		l.cache = cache.New(cache.WithBudget(l.cacheBudget), cache.WithLogger(l.logger))
		l.ownCache = true
	}
	return l, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Loader) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

type loaded struct {
	payload any
	source  string
}

// Load returns the named asset decoded as kind.
//
// A cached asset is returned as is when it was loaded as the same kind and
// fails with ErrTypeMismatch otherwise. On a miss the content is resolved,
// decoded, and cached; a failure at any step caches nothing.
func (l *Loader) Load(name string, kind Kind) (Asset, error) {
	if kind > KindEffect {
		return Asset{}, fmt.Errorf("load %s: unknown %v", name, kind)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Asset{}, ErrClosed
	}

	key := archive.NormalizeName(name)
	if payload, err := l.cache.Get(key); err == nil {
		l.log().Debug("asset cache hit", "name", key, "kind", kind)
		return wrap(key, kind, sourceCache, payload)
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		// Another caller may have finished between the lookup above and
		// joining the group. Exists keeps this re-check out of the miss
		// count.
		if l.cache.Exists(key) {
			if payload, err := l.cache.Get(key); err == nil {
				return loaded{payload: payload, source: sourceCache}, nil
			}
		}

		data, source, err := l.resolve(key)
		if err != nil {
			return nil, err
		}
		payload, err := l.decode(key, kind, data)
		if err != nil {
			return nil, err
		}
		l.cache.Add(key, payload)
		l.log().Debug("asset loaded", "name", key, "kind", kind, "source", source, "size", len(data))
		return loaded{payload: payload, source: source}, nil
	})
	if err != nil {
		return Asset{}, err
	}
	res, _ := v.(loaded) //nolint:errcheck // type assertion always succeeds when err is nil
	return wrap(key, kind, res.source, res.payload)
}

// LoadBytes returns the raw content of the named asset.
func (l *Loader) LoadBytes(name string) ([]byte, error) {
	a, err := l.Load(name, KindBytes)
	if err != nil {
		return nil, err
	}
	return a.Bytes(), nil
}

// LoadImage returns the named asset decoded as a still image.
func (l *Loader) LoadImage(name string) (image.Image, error) {
	a, err := l.Load(name, KindImage)
	if err != nil {
		return nil, err
	}
	return a.Image(), nil
}

// LoadAnimation returns a new player over the named animation.
func (l *Loader) LoadAnimation(name string) (*anim.Player, error) {
	a, err := l.Load(name, KindAnimation)
	if err != nil {
		return nil, err
	}
	return a.Player(), nil
}

// LoadEffect returns the named asset decoded by the effect factory.
func (l *Loader) LoadEffect(name string) (Effect, error) {
	a, err := l.Load(name, KindEffect)
	if err != nil {
		return nil, err
	}
	return a.Effect(), nil
}

// Preload loads every name as kind, several at a time, stopping at the
// first failure or when ctx is canceled.
func (l *Loader) Preload(ctx context.Context, kind Kind, names ...string) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.preloadWorkers)
	for _, name := range names {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := l.Load(name, kind)
			return err
		})
	}
	return eg.Wait()
}

// resolve finds the content of key: a loose file first, then the package
// index.
func (l *Loader) resolve(key string) ([]byte, string, error) {
	data, src, ok, err := l.loose.Read(key)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w: %v", key, ErrIO, err)
	}
	if ok {
		return data, string(src), nil
	}

	e, ok := l.index.Lookup(key)
	if !ok {
		return nil, "", fmt.Errorf("load %s: %w", key, ErrNotFound)
	}
	data, err = l.reader.Read(e)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", key, err)
	}
	return data, e.Archive, nil
}

func (l *Loader) decode(key string, kind Kind, data []byte) (any, error) {
	switch kind {
	case KindImage:
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %v", key, ErrDecode, err)
		}
		if l.premultiply {
			return pixel.Premultiply(img), nil
		}
		return pixel.Straight(img), nil

	case KindAnimation:
		a, err := l.decodeAnimation(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", key, ErrDecode, err)
		}
		seq, err := anim.Build(a.Width, a.Height, a.Default, a.Frames, a.Loops)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", key, ErrDecode, err)
		}
		return seq, nil

	case KindEffect:
		e, err := l.effects(key, data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", key, ErrDecode, err)
		}
		if e == nil {
			return nil, fmt.Errorf("decode %s: %w: effect factory returned nil", key, ErrDecode)
		}
		return e, nil

	default:
		return data, nil
	}
}

// wrap checks that payload matches kind and builds the Asset.
func wrap(key string, kind Kind, source string, payload any) (Asset, error) {
	a := Asset{name: key, kind: kind, source: source}
	ok := false
	switch kind {
	case KindBytes:
		a.bytes, ok = payload.([]byte)
	case KindImage:
		a.image, ok = payload.(image.Image)
	case KindAnimation:
		var seq *anim.Sequence
		if seq, ok = payload.(*anim.Sequence); ok {
			a.player = anim.NewPlayer(seq)
		}
	case KindEffect:
		a.effect, ok = payload.(Effect)
	}
	if !ok {
		return Asset{}, fmt.Errorf("load %s as %v: %w: cached as %v", key, kind, ErrTypeMismatch, kindOf(payload))
	}
	return a, nil
}

func kindOf(payload any) Kind {
	switch payload.(type) {
	case image.Image:
		return KindImage
	case *anim.Sequence:
		return KindAnimation
	case Effect:
		return KindEffect
	default:
		return KindBytes
	}
}

// Exists reports whether name can be loaded without ErrNotFound: it is
// cached, present as a loose file, or indexed.
func (l *Loader) Exists(name string) bool {
	key := archive.NormalizeName(name)
	if l.cache.Exists(key) || l.loose.Exists(key) {
		return true
	}
	_, ok := l.index.Lookup(key)
	return ok
}

// Cached reports whether name is in the cache.
func (l *Loader) Cached(name string) bool {
	return l.cache.Exists(archive.NormalizeName(name))
}

// Evict drops name from the cache, closing its payload if it is an
// io.Closer. It reports whether name was cached.
func (l *Loader) Evict(name string) bool {
	return l.cache.Remove(archive.NormalizeName(name))
}

// Index returns the package index built by New. It must not be modified.
func (l *Loader) Index() *archive.Index {
	return l.index
}

// Stats returns the cache counters.
func (l *Loader) Stats() cache.Stats {
	return l.cache.Stats()
}

// Root returns the content directory.
func (l *Loader) Root() string {
	return l.root
}

// Close releases package handles and the loose root, and clears the cache
// unless it was supplied with WithCache. Loads after Close fail with
// ErrClosed.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if l.ownCache {
		l.cache.Clear()
	}
	return errors.Join(l.reader.Close(), l.loose.Close())
}
