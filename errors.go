package assetpack

import (
	"errors"

	"github.com/meigma/assetpack/archive"
)

// Errors re-exported from archive.
var (
	// ErrIO is returned when a package or loose file cannot be read.
	ErrIO = archive.ErrIO

	// ErrCrypto is returned when packaged content cannot be decrypted.
	ErrCrypto = archive.ErrCrypto

	// ErrFormat is returned when a package is malformed.
	ErrFormat = archive.ErrFormat
)

var (
	// ErrNotFound is returned when no loose file or package entry has the
	// requested name.
	ErrNotFound = errors.New("assetpack: asset not found")

	// ErrTypeMismatch is returned when a cached asset was loaded as a
	// different kind than requested.
	ErrTypeMismatch = errors.New("assetpack: asset type mismatch")

	// ErrDecode is returned when content cannot be decoded as the
	// requested kind.
	ErrDecode = errors.New("assetpack: decode failed")

	// ErrClosed is returned by loads on a closed Loader.
	ErrClosed = errors.New("assetpack: loader closed")
)
