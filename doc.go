// Package assetpack loads game assets from encrypted packages and loose
// override files, decodes them, and keeps them in an activity-ranked cache.
//
// A [Loader] owns everything it needs: the package index built when it is
// created, a reader that keeps package files open, and the cache. Assets
// are requested by name and [Kind]:
//
//	l, err := assetpack.New("GameData")
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	img, err := l.LoadImage("Images/Title.png")
//
// # Resolution
//
// A loose file under the root with the requested name wins over packaged
// content, then a zstd-compressed loose file with a ".zst" suffix, then the
// package index. Package lookups ignore case and treat backslashes as
// slashes.
//
// # Animations
//
// Animated PNGs are composited once, when first loaded, into a shared
// [anim.Sequence]. Every call to [Loader.LoadAnimation] returns a new
// [anim.Player] over that sequence so each caller keeps its own playback
// position.
//
// # Caching
//
// Decoded assets stay cached until the cache evicts them under memory
// pressure. Payloads that implement io.Closer are closed on eviction.
package assetpack
