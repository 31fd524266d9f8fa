package z85

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestReferenceVector(t *testing.T) {
	// Reference vector from ZeroMQ RFC 32.
	src := []byte{0x86, 0x4F, 0xD2, 0x6F, 0xB5, 0x59, 0xF7, 0x5B}
	want := "HelloWorld"
	got := Encode(src)
	if string(got) != want {
		t.Fatalf("encode got %q want %q", got, want)
	}
	back := Decode([]byte(want))
	if !bytes.Equal(back, src) {
		t.Fatalf("decode got % x want % x", back, src)
	}
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n <= 64; n += 4 {
		src := make([]byte, n)
		r.Read(src)
		enc := Encode(src)
		if enc == nil {
			t.Fatalf("encode of %d bytes failed", n)
		}
		if len(enc) != EncodedLen(n) {
			t.Fatalf("encoded len got %d want %d", len(enc), EncodedLen(n))
		}
		dec := Decode(enc)
		if !bytes.Equal(dec, src) {
			t.Fatalf("round trip mismatch for %d bytes", n)
		}
		if !bytes.Equal(Encode(dec), enc) {
			t.Fatalf("encode(decode(x)) != x for %d bytes", n)
		}
	}
}

func TestBadLengths(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7} {
		if got := Encode(make([]byte, n)); got != nil {
			t.Errorf("encode %d bytes: expected nil, got %q", n, got)
		}
		if _, err := EncodeErr(make([]byte, n)); !errors.Is(err, ErrLength) {
			t.Errorf("encode %d bytes: expected ErrLength, got %v", n, err)
		}
	}
	for _, n := range []int{1, 4, 6, 9} {
		if got := Decode(bytes.Repeat([]byte{'0'}, n)); got != nil {
			t.Errorf("decode %d symbols: expected nil, got % x", n, got)
		}
	}
}

func TestDecodeRejectsForeignSymbols(t *testing.T) {
	if _, err := DecodeErr([]byte("Hell~")); !errors.Is(err, ErrSymbol) {
		t.Fatalf("expected ErrSymbol, got %v", err)
	}
	// "#####" is 85^5-1, larger than a uint32.
	if _, err := DecodeErr([]byte("#####")); !errors.Is(err, ErrSymbol) {
		t.Fatalf("expected overflow to be rejected, got %v", err)
	}
}

func TestEmptyInput(t *testing.T) {
	enc := Encode(nil)
	if enc == nil || len(enc) != 0 {
		t.Fatalf("empty input should encode to empty non-nil, got %v", enc)
	}
	if dec := Decode([]byte{}); dec == nil || len(dec) != 0 {
		t.Fatalf("empty input should decode to empty non-nil, got %v", dec)
	}
}
