// Package rmap implements the Remote Memory Access Protocol packet
// encoder/extractor of spec §4.4: SpaceWire remote-memory read/write
// commands and their replies, per ECSS-E-ST-50-52C. Field layout and
// instruction bitfield are grounded on outpost-core's rmap_packet.h
// (the RmapPacket class and its InstructionField); the implementing
// .cpp was not present in the retrieved original_source, so
// ConstructCommand/ExtractReply are a faithful reconstruction from the
// header's documented byte layout and spec §3/§4.4/§6's wire diagrams.
// Per spec §9 Open Question (iii), the header's deprecated `eigthBytes`
// alias is not carried over — only the corrected EightBytes.
package rmap

import (
	"encoding/binary"
	"errors"

	"github.com/tuhh-sat/pluto-core/crc"
)

// ProtocolIdentifier is the fixed RMAP protocol ID byte (ECSS-E-ST-50-52C).
const ProtocolIdentifier = 0x01

// MaxTargetSpwAddressLength bounds the variable-length SpaceWire path
// address prefix (spec §6: spwTargets[<=32]).
const MaxTargetSpwAddressLength = 32

// MaxReplyAddressWords bounds the reply-path address (spec §6: <=3 words).
const MaxReplyAddressWords = 3

// Header byte overheads, matching rmap_common.h's writeCommandOverhead /
// readCommandOverhead / readReplyOverhead / writeReplyOverhead (all
// excluding the variable-length SpW target address prefix and reply
// address, and excluding data itself; writeCommandOverhead/readReplyOverhead
// include their trailing data CRC byte).
const (
	WriteCommandOverhead = 17
	ReadCommandOverhead  = 16
	ReadReplyOverhead    = 13
	WriteReplyOverhead   = 8
)

// PacketType is the instruction byte's 2-bit packet-type field.
type PacketType uint8

const (
	ReplyPacket   PacketType = 0
	CommandPacket PacketType = 1
)

// Operation is the instruction byte's 1-bit read/write field.
type Operation uint8

const (
	OpRead  Operation = 0
	OpWrite Operation = 1
)

// ReplyAddrLen is the instruction byte's 2-bit reply-address-length field;
// the wire reply address is 4*field bytes (spec §3).
type ReplyAddrLen uint8

const (
	ZeroBytes   ReplyAddrLen = 0
	FourBytes   ReplyAddrLen = 1
	EightBytes  ReplyAddrLen = 2
	TwelveBytes ReplyAddrLen = 3
)

// Instruction packs the RMAP instruction byte: packetType(2) | write(1) |
// verify(1) | reply(1) | increment(1) | replyAddrLen(2), MSB to LSB,
// mirroring InstructionField's bit layout (bits 7:6, 5, 4, 3, 2, 1:0).
type Instruction struct {
	Type         PacketType
	Op           Operation
	Verify       bool
	Reply        bool
	Increment    bool
	ReplyAddrLen ReplyAddrLen
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Raw packs the instruction fields into a single byte.
func (i Instruction) Raw() uint8 {
	var b uint8
	b |= uint8(i.Type) << 6
	b |= uint8(i.Op) << 5
	b |= boolBit(i.Verify) << 4
	b |= boolBit(i.Reply) << 3
	b |= boolBit(i.Increment) << 2
	b |= uint8(i.ReplyAddrLen) & 0x03
	return b
}

// ParseInstruction unpacks a raw instruction byte.
func ParseInstruction(b uint8) Instruction {
	return Instruction{
		Type:         PacketType((b >> 6) & 0x03),
		Op:           Operation((b >> 5) & 0x01),
		Verify:       (b>>4)&0x01 != 0,
		Reply:        (b>>3)&0x01 != 0,
		Increment:    (b>>2)&0x01 != 0,
		ReplyAddrLen: ReplyAddrLen(b & 0x03),
	}
}

// ExtractionResult mirrors spec §7's RMAP extraction error taxonomy.
type ExtractionResult int

const (
	ExtractSuccess ExtractionResult = iota
	ExtractCrcError
	ExtractInvalid
	ExtractIncorrectAddress
)

func (r ExtractionResult) Error() string {
	switch r {
	case ExtractSuccess:
		return "success"
	case ExtractCrcError:
		return "rmap: crc mismatch"
	case ExtractInvalid:
		return "rmap: invalid packet format"
	case ExtractIncorrectAddress:
		return "rmap: initiator logical address mismatch"
	default:
		return "rmap: unknown extraction result"
	}
}

var errBufferTooSmall = errors.New("rmap: buffer too small")

// Packet is an RMAP command/reply packet, grounded on RmapPacket's field
// list (spec §3).
type Packet struct {
	SpwTargets              []byte
	TargetLogicalAddress    uint8
	Instruction             Instruction
	DestKey                 uint8
	ReplyAddress            []byte // 0, 4, 8, or 12 bytes
	InitiatorLogicalAddress uint8
	ExtendedAddress         uint8
	TransactionID           uint16
	Address                 uint32
	DataLength              uint32 // 24-bit on the wire
	Status                  uint8
	Data                    []byte
	HeaderCRC               uint8
	DataCRC                 uint8
}

func put24(buf []byte, v uint32) {
	buf[0] = byte(v >> 16)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v)
}

func get24(buf []byte) uint32 {
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}

// ConstructCommand serializes p as an RMAP command packet (read or write,
// per p.Instruction.Op) into buf, computing the header CRC-8 over the
// header proper (excluding the SpW target address prefix) and, for a
// write command, the data CRC-8 over p.Data. Returns the number of bytes
// written.
func (p *Packet) ConstructCommand(buf []byte) (int, error) {
	p.Instruction.Type = CommandPacket
	replyAddrLen := int(p.Instruction.ReplyAddrLen) * 4

	headerLen := 1 + 1 + 1 + 1 + replyAddrLen + 1 + 2 + 1 + 4 + 3 + 1
	total := len(p.SpwTargets) + headerLen
	if p.Instruction.Op == OpWrite {
		total += len(p.Data) + 1
	}
	if len(buf) < total {
		return 0, errBufferTooSmall
	}

	off := 0
	off += copy(buf[off:], p.SpwTargets)
	headerStart := off

	buf[off] = p.TargetLogicalAddress
	off++
	buf[off] = ProtocolIdentifier
	off++
	buf[off] = p.Instruction.Raw()
	off++
	buf[off] = p.DestKey
	off++
	off += copy(buf[off:off+replyAddrLen], p.ReplyAddress)
	buf[off] = p.InitiatorLogicalAddress
	off++
	binary.BigEndian.PutUint16(buf[off:off+2], p.TransactionID)
	off += 2
	buf[off] = p.ExtendedAddress
	off++
	binary.BigEndian.PutUint32(buf[off:off+4], p.Address)
	off += 4
	p.DataLength = uint32(len(p.Data))
	put24(buf[off:off+3], p.DataLength)
	off += 3

	p.HeaderCRC = crc.RMAP8(buf[headerStart:off])
	buf[off] = p.HeaderCRC
	off++

	if p.Instruction.Op == OpWrite {
		off += copy(buf[off:], p.Data)
		p.DataCRC = crc.RMAP8(p.Data)
		buf[off] = p.DataCRC
		off++
	}
	return off, nil
}

// ExtractReply parses data as an RMAP reply packet addressed to
// expectedInitiatorLogicalAddress, validating packet type, protocol ID,
// header CRC, and (for a read reply) data CRC.
func (p *Packet) ExtractReply(data []byte, expectedInitiatorLogicalAddress uint8) ExtractionResult {
	// write-reply: initiator(1) proto(1) instr(1) status(1) target(1)
	//   transactionId(2) headerCRC(1) = 8 bytes
	// read-reply: same prefix + reserved(1) + dataLength(3) + headerCRC(1)
	//   + data + dataCRC(1)
	if len(data) < WriteReplyOverhead {
		return ExtractInvalid
	}

	initiator := data[0]
	protocolID := data[1]
	instruction := ParseInstruction(data[2])
	status := data[3]
	target := data[4]
	transactionID := binary.BigEndian.Uint16(data[5:7])

	if instruction.Type != ReplyPacket {
		return ExtractInvalid
	}
	if protocolID != ProtocolIdentifier {
		return ExtractInvalid
	}
	if initiator != expectedInitiatorLogicalAddress {
		return ExtractIncorrectAddress
	}

	p.Instruction = instruction
	p.InitiatorLogicalAddress = initiator
	p.TargetLogicalAddress = target
	p.TransactionID = transactionID
	p.Status = status

	if instruction.Op == OpWrite {
		headerCRC := data[7]
		if crc.RMAP8(data[:7]) != headerCRC {
			return ExtractCrcError
		}
		p.HeaderCRC = headerCRC
		p.Data = nil
		return ExtractSuccess
	}

	// read reply
	if len(data) < ReadReplyOverhead {
		return ExtractInvalid
	}
	dataLength := get24(data[8:11])
	headerCRC := data[11]
	if crc.RMAP8(data[:11]) != headerCRC {
		return ExtractCrcError
	}
	if uint32(len(data)) < uint32(ReadReplyOverhead)+dataLength {
		return ExtractInvalid
	}
	p.HeaderCRC = headerCRC
	p.DataLength = dataLength
	p.Data = data[12 : 12+dataLength]
	dataCRC := data[12+dataLength]
	if crc.RMAP8(p.Data) != dataCRC {
		return ExtractCrcError
	}
	p.DataCRC = dataCRC
	return ExtractSuccess
}
