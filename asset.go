package assetpack

import (
	"image"

	"github.com/meigma/assetpack/anim"
)

// Asset is the result of a load. Exactly one of its accessors returns a
// non-nil value, selected by Kind.
type Asset struct {
	name   string
	kind   Kind
	source string

	bytes  []byte
	image  image.Image
	player *anim.Player
	effect Effect
}

// Name returns the normalized name the asset was loaded under.
func (a Asset) Name() string { return a.name }

// Kind returns the kind the asset was loaded as.
func (a Asset) Kind() Kind { return a.kind }

// Source reports where the content came from: "cache", "file",
// "file+zstd", or the package path.
func (a Asset) Source() string { return a.source }

// Bytes returns raw content for KindBytes. The slice is shared with the
// cache and must not be modified.
func (a Asset) Bytes() []byte { return a.bytes }

// Image returns pixels for KindImage: *image.RGBA when alpha is
// premultiplied, *image.NRGBA otherwise.
func (a Asset) Image() image.Image { return a.image }

// Player returns a fresh playback state for KindAnimation.
func (a Asset) Player() *anim.Player { return a.player }

// Effect returns the decoded effect for KindEffect.
func (a Asset) Effect() Effect { return a.effect }
