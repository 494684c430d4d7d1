package compress_test

import (
	"testing"
	"time"

	"github.com/tuhh-sat/pluto-core/compress"
	"github.com/tuhh-sat/pluto-core/pool"
)

func TestForwardTransformReorderShapes(t *testing.T) {
	samples := make([]compress.Fixedpoint, 16)
	for i := range samples {
		samples[i] = compress.FixedpointFromInt(int32(i))
	}
	compress.ForwardTransformInPlace(samples)
	coeffs := compress.Reorder(samples)
	if len(coeffs) != 16 {
		t.Fatalf("expected 16 coefficients, got %d", len(coeffs))
	}
}

func TestNLSEncodeDecodeRoundTrip(t *testing.T) {
	coeffs := []int16{0, 0, 0, 5, -3, 0, 0, 0, 0, 0, 7}
	buf := make([]byte, 64)
	bs := compress.NewBitstream(buf)
	var enc compress.NLSEncoder
	if !enc.Encode(coeffs, bs) {
		t.Fatalf("Encode returned false")
	}
	size := bs.GetSerializedSize()

	reader := compress.NewBitstreamReader(buf[:size])
	out := make([]int16, len(coeffs))
	if !enc.Decode(reader, out) {
		t.Fatalf("Decode returned false")
	}
	for i := range coeffs {
		if out[i] != coeffs[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], coeffs[i])
		}
	}
}

func TestDataBlockAccumulateTransformEncode(t *testing.T) {
	bufPool := pool.NewSharedBufferPool(16*4+32, 4, 4)
	rawPtr := bufPool.Allocate()
	if rawPtr == nil {
		t.Fatal("allocate raw block failed")
	}
	b := compress.NewDataBlock(rawPtr, 42, 1000, 500, compress.Rate10Hz, compress.Block16)
	for i := 0; i < 16; i++ {
		if !b.Push(compress.FixedpointFromInt(int32(i % 3))) {
			t.Fatalf("push %d failed", i)
		}
	}
	if !b.IsComplete() {
		t.Fatalf("expected block complete")
	}
	if !b.ApplyWaveletTransform() {
		t.Fatalf("ApplyWaveletTransform failed")
	}
	if len(b.GetCoefficients()) != 16 {
		t.Fatalf("expected 16 coefficients, got %d", len(b.GetCoefficients()))
	}

	outPtr := bufPool.Allocate()
	if outPtr == nil {
		t.Fatal("allocate output block failed")
	}
	out := compress.NewDataBlock(outPtr, 0, 0, 0, compress.RateDisabled, compress.BlockDisabled)
	var enc compress.NLSEncoder
	if !b.Encode(out, enc) {
		t.Fatalf("Encode failed")
	}
	if !out.IsEncoded() {
		t.Fatalf("expected out.IsEncoded()")
	}
	if out.ParameterID() != 42 {
		t.Fatalf("parameterID not propagated: got %d", out.ParameterID())
	}

	scheme, parameterID, sec, millis, rate, bs := compress.DecodeHeader(out.GetEncodedData())
	if scheme != compress.SchemeWaveletNLS || parameterID != 42 || sec != 1000 || millis != 500 || rate != compress.Rate10Hz || bs != compress.Block16 {
		t.Fatalf("header round trip mismatch: %v %v %v %v %v %v", scheme, parameterID, sec, millis, rate, bs)
	}
}

func TestProcessorCompressesAndForwards(t *testing.T) {
	bufPool := pool.NewSharedBufferPool(16*4+32, 4, 4)
	input := compress.NewBlockQueue(2)
	output := compress.NewBlockQueue(2)
	proc := compress.NewProcessor(nil, bufPool, input, output, 2, 10*time.Millisecond)
	proc.Enable()

	rawPtr := bufPool.Allocate()
	b := compress.NewDataBlock(rawPtr, 7, 10, 0, compress.Rate1Hz, compress.Block16)
	for i := 0; i < 16; i++ {
		b.Push(compress.FixedpointFromInt(int32(i)))
	}
	if err := input.Send(b); err != nil {
		t.Fatalf("Send: %v", err)
	}

	proc.ProcessSingleBlock(time.Second)

	if proc.NumberOfForwardedBlocks() != 1 {
		t.Fatalf("expected 1 forwarded block, got %d (lost=%d)", proc.NumberOfForwardedBlocks(), proc.NumberOfLostBlocks())
	}
	got, err := output.Receive(time.Millisecond)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !got.IsEncoded() {
		t.Fatalf("expected forwarded block to be encoded")
	}
}
