package apng

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/meigma/assetpack/internal/bytesutil"
)

// signature opens every PNG stream.
var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type chunk struct {
	typ  string
	data []byte
}

// readChunks splits a PNG stream into chunks up to and including IEND,
// verifying every CRC.
func readChunks(data []byte) ([]chunk, error) {
	if bytesutil.Index(data, signature, 0) != 0 {
		return nil, fmt.Errorf("%w: missing PNG signature", ErrFormat)
	}
	var chunks []chunk
	pos := len(signature)
	for {
		hdr, err := bytesutil.CopyBlock(data, pos, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", ErrFormat, pos)
		}
		length := int(binary.BigEndian.Uint32(hdr))
		typ := string(hdr[4:8])

		body, err := bytesutil.CopyBlock(data, pos+8, length)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated %s chunk", ErrFormat, typ)
		}
		crc, err := bytesutil.CopyBlock(data, pos+8+length, 4)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated %s chunk", ErrFormat, typ)
		}
		if binary.BigEndian.Uint32(crc) != checksum(typ, body) {
			return nil, fmt.Errorf("%w: bad CRC in %s chunk", ErrFormat, typ)
		}

		chunks = append(chunks, chunk{typ: typ, data: body})
		pos += 12 + length
		if typ == "IEND" {
			return chunks, nil
		}
	}
}

func checksum(typ string, data []byte) uint32 {
	h := crc32.NewIEEE()
	_, _ = io.WriteString(h, typ)
	_, _ = h.Write(data)
	return h.Sum32()
}

// writeChunk appends one framed chunk to w.
func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data))) //nolint:gosec // chunk sizes are bounded by frame sizes
	copy(hdr[4:], typ)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], checksum(typ, data))
	_, err := w.Write(crc[:])
	return err
}
