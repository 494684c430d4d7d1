package cobs_test

import (
	"bytes"
	"testing"

	"github.com/tuhh-sat/pluto-core/cobs"
)

func mustCodec(t *testing.T, blockLength int) *cobs.Codec {
	t.Helper()
	c, err := cobs.NewCodec(blockLength)
	if err != nil {
		t.Fatalf("NewCodec(%d): %v", blockLength, err)
	}
	return c
}

func TestEncodeBoundaryExample(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	input := []byte{0x11, 0x22, 0x00, 0x33}
	out := make([]byte, c.MaxEncodedLength(len(input)))
	n := c.Encode(input, out)
	want := []byte{0x03, 0x11, 0x22, 0x02, 0x33}
	if !bytes.Equal(out[:n], want) {
		t.Fatalf("Encode = % x, want % x", out[:n], want)
	}
}

func TestRoundTrip(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x00, 0x00},
		{0x11, 0x22, 0x00, 0x33},
		bytes.Repeat([]byte{0x01}, 1000),
		bytes.Repeat([]byte{0x00, 0x01}, 300),
	}
	for _, in := range cases {
		enc := make([]byte, c.MaxEncodedLength(len(in)))
		n := c.Encode(in, enc)
		enc = enc[:n]
		for _, b := range enc {
			if b == 0 {
				t.Fatalf("encoded stream contains zero byte for input % x", in)
			}
		}
		dec := make([]byte, len(in)+1)
		m := c.Decode(enc, dec)
		if !bytes.Equal(dec[:m], in) {
			t.Fatalf("round trip failed for % x: got % x", in, dec[:m])
		}
	}
}

func TestEncodeOutputTooSmallReturnsZero(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	in := []byte{1, 2, 3}
	out := make([]byte, 1)
	if n := c.Encode(in, out); n != 0 {
		t.Fatalf("Encode with undersized output = %d, want 0", n)
	}
}

func TestFrameEncodeDecode(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	f := cobs.NewFrame(c)
	input := []byte{0x11, 0x22, 0x00, 0x33}
	out := make([]byte, f.MaxEncodedLength(len(input)))
	n := f.Encode(input, out)
	want := []byte{0x03, 0x11, 0x22, 0x02, 0x33, 0x00}
	if !bytes.Equal(out[:n], want) {
		t.Fatalf("Frame.Encode = % x, want % x", out[:n], want)
	}

	dec := make([]byte, 16)
	consumed, length := f.Decode(out[:n], dec)
	if consumed != n {
		t.Fatalf("consumed = %d, want %d", consumed, n)
	}
	if !bytes.Equal(dec[:length], input) {
		t.Fatalf("decoded = % x, want % x", dec[:length], input)
	}
}

func TestFrameDecodeWithTrailingData(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	f := cobs.NewFrame(c)
	input := []byte{0x11, 0x22, 0x00, 0x33}
	framed := make([]byte, f.MaxEncodedLength(len(input)))
	n := f.Encode(input, framed)
	tail := []byte{0xAA, 0xBB}
	stream := append(append([]byte{}, framed[:n]...), tail...)

	dec := make([]byte, 16)
	consumed, length := f.Decode(stream, dec)
	if consumed != n {
		t.Fatalf("consumed = %d, want %d (frame only)", consumed, n)
	}
	if !bytes.Equal(dec[:length], input) {
		t.Fatalf("decoded = % x, want % x", dec[:length], input)
	}
	remaining := stream[consumed:]
	if !bytes.Equal(remaining, tail) {
		t.Fatalf("remaining stream = % x, want % x", remaining, tail)
	}
}

func TestFrameDecodeNoTerminatorWaitsForMore(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	f := cobs.NewFrame(c)
	consumed, length := f.Decode([]byte{0x03, 0x11, 0x22}, make([]byte, 16))
	if consumed != 0 || length != 0 {
		t.Fatalf("expected (0,0) without terminator, got (%d,%d)", consumed, length)
	}
}

func TestFrameDecodeEmptyFrame(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	f := cobs.NewFrame(c)
	consumed, length := f.Decode([]byte{0x00}, make([]byte, 16))
	if consumed != 1 || length != 0 {
		t.Fatalf("empty frame: got (%d,%d), want (1,0)", consumed, length)
	}
}

func TestFrameDecodeMalformedChainReportsConsumedOnly(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	f := cobs.NewFrame(c)
	// Pointer chain that overruns the terminator: code=5 but only 2 bytes follow.
	garbage := []byte{0x05, 0x01, 0x02, 0x00}
	consumed, length := f.Decode(garbage, make([]byte, 16))
	if consumed != len(garbage) {
		t.Fatalf("consumed = %d, want %d", consumed, len(garbage))
	}
	if length != 0 {
		t.Fatalf("length = %d, want 0 for malformed chain", length)
	}
}

func TestGeneratorMatchesEncode(t *testing.T) {
	c := mustCodec(t, cobs.DefaultBlockLength)
	input := []byte{0x11, 0x22, 0x00, 0x33, 0x00, 0x00, 0x55}
	want := make([]byte, c.MaxEncodedLength(len(input)))
	n := c.Encode(input, want)
	want = want[:n]

	g := cobs.NewGenerator(c, input)
	var got []byte
	for {
		b, ok := g.Next()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Generator output = % x, want % x", got, want)
	}
}
