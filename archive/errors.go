package archive

import "errors"

// Sentinel errors.
var (
	// ErrFormat is returned when a header or entry table is inconsistent.
	ErrFormat = errors.New("archive: invalid format")

	// ErrIO is returned when an archive cannot be opened or read in full.
	ErrIO = errors.New("archive: i/o failure")

	// ErrCrypto is returned when a payload cannot be decrypted at all.
	ErrCrypto = errors.New("archive: undecryptable payload")

	// ErrSizeOverflow is returned when offsets or lengths exceed the
	// 32-bit fields of the format.
	ErrSizeOverflow = errors.New("archive: size overflow")

	// ErrNameTooLong is returned when an entry name does not fit its field.
	ErrNameTooLong = errors.New("archive: entry name too long")

	// ErrDuplicateName is returned when a package would hold two entries
	// whose names differ only in case.
	ErrDuplicateName = errors.New("archive: duplicate entry name")
)
