package compress

import (
	"encoding/binary"

	"github.com/tuhh-sat/pluto-core/pool"
)

// Blocksize is the fixed sample count a DataBlock accumulates before it is
// eligible for compression, mirroring outpost::compression::Blocksize.
type Blocksize uint8

const (
	BlockDisabled Blocksize = iota
	Block16
	Block128
	Block256
	Block512
	Block1024
	Block2048
	Block4096
)

// Samples returns the sample count toUInt(Blocksize) maps to.
func (b Blocksize) Samples() int {
	switch b {
	case Block16:
		return 16
	case Block128:
		return 128
	case Block256:
		return 256
	case Block512:
		return 512
	case Block1024:
		return 1024
	case Block2048:
		return 2048
	case Block4096:
		return 4096
	default:
		return 0
	}
}

// SamplingRate tags the cadence of the samples a DataBlock carries. The
// original's enumerators were not present in the retrieved header, so this
// is a minimal placeholder set sufficient to round-trip through the
// header.
type SamplingRate uint8

const (
	RateDisabled SamplingRate = iota
	Rate1Hz
	Rate10Hz
	Rate100Hz
)

// CompressionScheme tags how a DataBlock's payload is encoded.
type CompressionScheme uint8

const (
	SchemeRaw CompressionScheme = iota
	SchemeWaveletNLS
)

// Header layout: scheme(1) + parameterId(2) + startTimeSeconds(4) +
// startTimeMillis(2) + samplingRate/blocksize nibble pair(1) = 10 bytes of
// real header, padded to headerSize for 4-byte sample alignment.
const (
	headerBytesLen = 10
	headerPadding  = 2
	headerSize     = headerBytesLen + headerPadding
)

// DataBlock is a single window of samples moving through
// accumulating -> transformed -> encoded states, grounded on
// data_block.cpp/.h. Sample storage lives in a plain Go slice rather than
// being reinterpreted in place over the pool buffer (the original's
// reinterpret_cast<Fixedpoint*> trick isn't expressible without unsafe);
// the pool.SharedBufferPointer is still the block's owning allocation and
// backs the final encoded bytes, keeping the pool's refcounting exercised
// end to end.
type DataBlock struct {
	sampleCount      int
	parameterID      uint16
	startTimeSeconds uint32
	startTimeMillis  uint16
	samplingRate     SamplingRate
	blocksize        Blocksize
	scheme           CompressionScheme

	ptr          *pool.SharedBufferPointer
	samples      []Fixedpoint
	coefficients []int16

	isTransformed bool
	isEncoded     bool
}

// NewDataBlock constructs an accumulating DataBlock backed by ptr.
func NewDataBlock(ptr *pool.SharedBufferPointer, parameterID uint16, startSeconds uint32, startMillis uint16, rate SamplingRate, bs Blocksize) *DataBlock {
	return &DataBlock{
		parameterID:      parameterID,
		startTimeSeconds: startSeconds,
		startTimeMillis:  startMillis,
		samplingRate:     rate,
		blocksize:        bs,
		scheme:           SchemeRaw,
		ptr:              ptr,
		samples:          make([]Fixedpoint, 0, bs.Samples()),
	}
}

func (d *DataBlock) ParameterID() uint16                { return d.parameterID }
func (d *DataBlock) StartTimeSeconds() uint32           { return d.startTimeSeconds }
func (d *DataBlock) StartTimeMillis() uint16            { return d.startTimeMillis }
func (d *DataBlock) SamplingRate() SamplingRate         { return d.samplingRate }
func (d *DataBlock) GetBlocksize() Blocksize            { return d.blocksize }
func (d *DataBlock) Scheme() CompressionScheme          { return d.scheme }
func (d *DataBlock) IsTransformed() bool                { return d.isTransformed }
func (d *DataBlock) IsEncoded() bool                    { return d.isEncoded }
func (d *DataBlock) Pointer() *pool.SharedBufferPointer { return d.ptr }

// GetMaximumSize returns the backing buffer's capacity in bytes.
func (d *DataBlock) GetMaximumSize() int {
	if d.ptr == nil {
		return 0
	}
	return len(d.ptr.Bytes())
}

// IsValid reports whether the backing buffer is large enough to hold a
// full block of this blocksize plus header.
func (d *DataBlock) IsValid() bool {
	return d.ptr != nil && d.ptr.Bytes() != nil &&
		d.GetMaximumSize() >= d.blocksize.Samples()*4+headerSize
}

// IsComplete reports whether the block has accumulated a full blocksize
// of samples.
func (d *DataBlock) IsComplete() bool {
	return d.sampleCount > 0 && d.sampleCount == d.blocksize.Samples()
}

// Push appends a sample, returning false if the block is already
// complete or invalid.
func (d *DataBlock) Push(f Fixedpoint) bool {
	if d.IsComplete() || !d.IsValid() {
		return false
	}
	d.samples = append(d.samples, f)
	d.sampleCount++
	return true
}

// GetSamples returns the raw accumulated samples, or nil once the block
// has been transformed or encoded.
func (d *DataBlock) GetSamples() []Fixedpoint {
	if d.isTransformed || d.isEncoded {
		return nil
	}
	return d.samples[:d.sampleCount]
}

// GetCoefficients returns the post-transform, pre-encode wavelet
// coefficients, or nil outside that window.
func (d *DataBlock) GetCoefficients() []int16 {
	if d.isTransformed && !d.isEncoded {
		return d.coefficients
	}
	return nil
}

// GetEncodedData returns the header-plus-bitstream bytes of an encoded
// block, or nil if the block hasn't been encoded.
func (d *DataBlock) GetEncodedData() []byte {
	if !d.isEncoded {
		return nil
	}
	return d.ptr.Bytes()[:headerBytesLen+d.sampleCount]
}

// ApplyWaveletTransform runs the forward LeGall 5/3 lifting transform
// over the accumulated samples in place, then reorders the result into
// low-pass/high-pass coefficient order. Returns false if the block is
// already transformed, already encoded, or empty.
func (d *DataBlock) ApplyWaveletTransform() bool {
	if d.isTransformed || d.isEncoded || d.sampleCount == 0 {
		return false
	}
	samples := d.samples[:d.sampleCount]
	ForwardTransformInPlace(samples)
	d.coefficients = Reorder(samples)
	d.isTransformed = true
	return true
}

// Encode NLS-encodes d's coefficients into out's backing buffer, filling
// in out's header fields from d. out must hold a large enough buffer
// (checked via GetMaximumSize); d must already be transformed. Mirrors
// DataBlock::encode's by-value "b = outputBlock" hand-off.
func (d *DataBlock) Encode(out *DataBlock, encoder NLSEncoder) bool {
	if !d.isTransformed || out.GetMaximumSize() < d.sampleCount*2 {
		return false
	}

	buf := out.ptr.Bytes()
	dataRegion := buf[headerBytesLen:]
	clear(dataRegion) // reused pool chunks carry stale bytes; the bit writer only ORs
	bs := NewBitstream(dataRegion)
	if !encoder.Encode(d.coefficients, bs) {
		return false
	}

	out.sampleCount = bs.GetSerializedSize()
	out.isEncoded = true
	out.scheme = SchemeWaveletNLS
	out.parameterID = d.parameterID
	out.startTimeSeconds = d.startTimeSeconds
	out.startTimeMillis = d.startTimeMillis
	out.samplingRate = d.samplingRate
	out.blocksize = d.blocksize

	header := buf[:headerBytesLen]
	header[0] = byte(out.scheme)
	binary.BigEndian.PutUint16(header[1:3], out.parameterID)
	binary.BigEndian.PutUint32(header[3:7], out.startTimeSeconds)
	binary.BigEndian.PutUint16(header[7:9], out.startTimeMillis)
	header[9] = byte(out.samplingRate)<<4 | byte(out.blocksize)&0x0F
	return true
}

// DecodeHeader reads scheme/parameterId/startTime/samplingRate/blocksize
// back out of an encoded block's header bytes, for ground-side decoding.
func DecodeHeader(buf []byte) (scheme CompressionScheme, parameterID uint16, startSeconds uint32, startMillis uint16, rate SamplingRate, bs Blocksize) {
	scheme = CompressionScheme(buf[0])
	parameterID = binary.BigEndian.Uint16(buf[1:3])
	startSeconds = binary.BigEndian.Uint32(buf[3:7])
	startMillis = binary.BigEndian.Uint16(buf[7:9])
	rate = SamplingRate(buf[9] >> 4)
	bs = Blocksize(buf[9] & 0x0F)
	return
}
