// Package archive reads and writes the encrypted asset package format.
//
// A package is a single file holding a fixed header, a table of fixed-width
// entry records, and the encrypted payload of every entry:
//
//	header   8-byte NUL-padded magic + uint32 entry count
//	entry    52-byte NUL-padded UTF-8 name + uint32 offset
//	         + uint32 stored length + uint32 real length      (x count)
//	payload  AES-CBC ciphertext at each entry's offset
//
// All integers are little-endian and nothing is aligned. The stored length
// is the ciphertext length; everything past the real length is padding and
// is dropped after decryption.
//
// [Scan] builds an [Index] over every package under a directory tree. Names
// are matched case-insensitively and packages scanned later override entries
// of the same name from packages scanned earlier. [Reader] decrypts entries,
// and [FS] exposes an index as an fs.FS.
package archive
