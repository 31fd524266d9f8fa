// Package z85 implements the ZeroMQ 32/Z85 binary-to-text encoding. Every 4
// input bytes become 5 printable symbols, so binary blobs (recordings,
// persistent data) can travel inside JSON strings without escaping.
package z85

import (
	"errors"
	"fmt"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?&<>()[]{}@%$#"

// ErrLength is returned when the input is not a whole number of blocks.
var ErrLength = errors.New("z85: input length is not a multiple of the block size")

// ErrSymbol is returned when decoding meets a byte outside the alphabet or a
// block whose value does not fit in 32 bits.
var ErrSymbol = errors.New("z85: invalid symbol")

// decodeTable maps an input byte to its alphabet position plus one. Zero
// marks bytes outside the alphabet.
var decodeTable = func() [256]byte {
	var t [256]byte
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = byte(i + 1)
	}
	return t
}()

// EncodedLen returns the encoded length of n source bytes.
func EncodedLen(n int) int { return n / 4 * 5 }

// DecodedLen returns the decoded length of n encoded bytes.
func DecodedLen(n int) int { return n / 5 * 4 }

// Encode returns the Z85 text for src, or nil when len(src) is not a
// multiple of 4. An empty input encodes to an empty, non-nil result.
func Encode(src []byte) []byte {
	dst, err := EncodeErr(src)
	if err != nil {
		return nil
	}
	return dst
}

// Decode returns the bytes encoded by src, or nil when src is malformed.
func Decode(src []byte) []byte {
	dst, err := DecodeErr(src)
	if err != nil {
		return nil
	}
	return dst
}

// EncodeErr is Encode with the failure reason reported.
func EncodeErr(src []byte) ([]byte, error) {
	if len(src)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrLength, len(src))
	}
	dst := make([]byte, EncodedLen(len(src)))
	for i, o := 0, 0; i < len(src); i, o = i+4, o+5 {
		v := uint32(src[i])<<24 | uint32(src[i+1])<<16 | uint32(src[i+2])<<8 | uint32(src[i+3])
		for k := 4; k >= 0; k-- {
			dst[o+k] = alphabet[v%85]
			v /= 85
		}
	}
	return dst, nil
}

// DecodeErr is Decode with the failure reason reported.
func DecodeErr(src []byte) ([]byte, error) {
	if len(src)%5 != 0 {
		return nil, fmt.Errorf("%w: %d symbols", ErrLength, len(src))
	}
	dst := make([]byte, DecodedLen(len(src)))
	for i, o := 0, 0; i < len(src); i, o = i+5, o+4 {
		var v uint64
		for k := 0; k < 5; k++ {
			d := decodeTable[src[i+k]]
			if d == 0 {
				return nil, fmt.Errorf("%w: %q at offset %d", ErrSymbol, src[i+k], i+k)
			}
			v = v*85 + uint64(d-1)
		}
		if v > 0xffffffff {
			return nil, fmt.Errorf("%w: block at offset %d overflows", ErrSymbol, i)
		}
		dst[o] = byte(v >> 24)
		dst[o+1] = byte(v >> 16)
		dst[o+2] = byte(v >> 8)
		dst[o+3] = byte(v)
	}
	return dst, nil
}

// EncodeToString is a convenience wrapper returning the text as a string.
// The boolean is false when the input length is invalid.
func EncodeToString(src []byte) (string, bool) {
	dst := Encode(src)
	if dst == nil {
		return "", false
	}
	return string(dst), true
}

// DecodeString decodes s, reporting the failure reason.
func DecodeString(s string) ([]byte, error) {
	return DecodeErr([]byte(s))
}
