package assetpack

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/meigma/assetpack/apng"
	"github.com/meigma/assetpack/cache"
)

// Option configures a Loader.
type Option func(*Loader) error

// AnimationDecoder parses animated image content.
type AnimationDecoder func(data []byte) (*apng.Image, error)

// DefaultMaxAssetSize is the default limit on a single asset's raw size (256MB).
const DefaultMaxAssetSize = 256 << 20

// WithLogger sets the logger used by the loader and everything it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// WithCache makes the loader use c instead of creating its own. A shared
// cache is not cleared when the loader is closed.
func WithCache(c *cache.Cache) Option {
	return func(l *Loader) error {
		if c == nil {
			return errors.New("assetpack: nil cache")
		}
		l.cache = c
		return nil
	}
}

// WithCacheBudget sets the memory budget of the loader's own cache.
// It has no effect together with WithCache.
func WithCacheBudget(bytes uint64) Option {
	return func(l *Loader) error {
		l.cacheBudget = bytes
		return nil
	}
}

// WithPremultiply controls whether still images are converted to
// alpha-premultiplied RGBA. It is enabled by default.
func WithPremultiply(enabled bool) Option {
	return func(l *Loader) error {
		l.premultiply = enabled
		return nil
	}
}

// WithEffectFactory sets how KindEffect content is decoded. The default
// returns a RawEffect.
func WithEffectFactory(fn EffectFactory) Option {
	return func(l *Loader) error {
		if fn == nil {
			return errors.New("assetpack: nil effect factory")
		}
		l.effects = fn
		return nil
	}
}

// WithAnimationDecoder replaces the APNG decoder used for KindAnimation.
func WithAnimationDecoder(fn AnimationDecoder) Option {
	return func(l *Loader) error {
		if fn == nil {
			return errors.New("assetpack: nil animation decoder")
		}
		l.decodeAnimation = fn
		return nil
	}
}

// WithArchiveExtension sets the file extension of package files.
func WithArchiveExtension(ext string) Option {
	return func(l *Loader) error {
		if ext == "" || ext == "." {
			return errors.New("assetpack: empty archive extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.extension = ext
		return nil
	}
}

// WithStrictMagic rejects packages whose header does not carry the
// expected magic. By default a bad magic is only logged.
func WithStrictMagic(strict bool) Option {
	return func(l *Loader) error {
		l.strictMagic = strict
		return nil
	}
}

// WithMaxAssetSize limits the raw size of a single asset, packaged or
// loose. Set limit to 0 to disable the limit.
func WithMaxAssetSize(limit uint32) Option {
	return func(l *Loader) error {
		l.maxAssetSize = limit
		return nil
	}
}

// WithPreloadConcurrency sets how many assets Preload decodes at once.
// Values below 1 mean one at a time.
func WithPreloadConcurrency(n int) Option {
	return func(l *Loader) error {
		l.preloadWorkers = max(n, 1)
		return nil
	}
}
