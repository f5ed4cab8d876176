// Package crypt implements the fixed-key block cipher that protects archive
// payloads.
//
// The key and IV are constants shared by every archive ever built. They
// make payloads opaque to casual inspection; they are not a security
// boundary.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// BlockSize is the cipher block size in bytes.
const BlockSize = aes.BlockSize

const key = "67nTzL5X!!18M8wc"

var iv = [BlockSize]byte{
	0x98, 0xCF, 0xE4, 0x81, 0x44, 0xA3, 0x7D, 0x8B,
	0xDA, 0xE2, 0x8C, 0x78, 0x0B, 0x45, 0x27, 0x73,
}

var (
	// ErrBlockSize is returned when ciphertext is not a whole number of blocks.
	ErrBlockSize = errors.New("crypt: ciphertext is not block aligned")

	// ErrPadding is returned by Unpad when the trailing padding is malformed.
	ErrPadding = errors.New("crypt: invalid padding")
)

func newBlock() cipher.Block {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		// The key is a 16-byte constant.
		panic(err)
	}
	return block
}

// Encrypt pads plaintext to a whole number of blocks (PKCS#7) and encrypts
// it in CBC mode. The result is always 1..BlockSize bytes longer than p.
func Encrypt(p []byte) []byte {
	n := BlockSize - len(p)%BlockSize
	buf := make([]byte, len(p)+n)
	copy(buf, p)
	for i := len(p); i < len(buf); i++ {
		buf[i] = byte(n)
	}
	cipher.NewCBCEncrypter(newBlock(), iv[:]).CryptBlocks(buf, buf)
	return buf
}

// Decrypt decrypts c in CBC mode. The output has the same length as c;
// padding is left in place for the caller to truncate. Corrupted but
// aligned ciphertext decrypts to garbage without an error.
func Decrypt(c []byte) ([]byte, error) {
	if len(c)%BlockSize != 0 {
		return nil, ErrBlockSize
	}
	out := make([]byte, len(c))
	if len(c) == 0 {
		return out, nil
	}
	cipher.NewCBCDecrypter(newBlock(), iv[:]).CryptBlocks(out, c)
	return out, nil
}

// Unpad strips PKCS#7 padding added by Encrypt.
func Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%BlockSize != 0 {
		return nil, ErrPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > BlockSize {
		return nil, ErrPadding
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, ErrPadding
		}
	}
	return b[:len(b)-n], nil
}
