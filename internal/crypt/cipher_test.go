package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 15, 16, 17, 4096} {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			t.Parallel()

			plain := bytes.Repeat([]byte{0xA5}, n)
			for i := range plain {
				plain[i] ^= byte(i)
			}

			ct := Encrypt(plain)
			assert.Zero(t, len(ct)%BlockSize)
			assert.Greater(t, len(ct), len(plain))

			out, err := Decrypt(ct)
			require.NoError(t, err)
			require.Len(t, out, len(ct))
			assert.Equal(t, plain, out[:n])

			unpadded, err := Unpad(out)
			require.NoError(t, err)
			assert.Equal(t, plain, unpadded)
		})
	}
}

func TestEncryptUsesFixedKeyAndIV(t *testing.T) {
	t.Parallel()

	block, err := aes.NewCipher([]byte("67nTzL5X!!18M8wc"))
	require.NoError(t, err)
	want := bytes.Repeat([]byte{BlockSize}, BlockSize)
	cipher.NewCBCEncrypter(block, []byte{
		0x98, 0xCF, 0xE4, 0x81, 0x44, 0xA3, 0x7D, 0x8B,
		0xDA, 0xE2, 0x8C, 0x78, 0x0B, 0x45, 0x27, 0x73,
	}).CryptBlocks(want, want)

	assert.Equal(t, want, Encrypt(nil))
	assert.Equal(t, Encrypt([]byte("same")), Encrypt([]byte("same")))
}

func TestDecryptRejectsUnaligned(t *testing.T) {
	t.Parallel()

	_, err := Decrypt(make([]byte, 17))
	assert.ErrorIs(t, err, ErrBlockSize)
}

func TestDecryptCorruptedCiphertextIsSilent(t *testing.T) {
	t.Parallel()

	ct := Encrypt([]byte("payload that spans more than one block"))
	ct[3] ^= 0xFF

	out, err := Decrypt(ct)
	require.NoError(t, err)
	assert.Len(t, out, len(ct))
}

func TestUnpad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unaligned", make([]byte, 5)},
		{"zero pad byte", make([]byte, 16)},
		{"pad too large", append(make([]byte, 15), 17)},
		{"inconsistent", append(append(make([]byte, 13), 1, 2), 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unpad(tt.in)
			assert.ErrorIs(t, err, ErrPadding)
		})
	}
}
