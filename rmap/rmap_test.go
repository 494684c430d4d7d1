package rmap_test

import (
	"testing"

	"github.com/tuhh-sat/pluto-core/rmap"
)

func TestInstructionRawRoundTrip(t *testing.T) {
	i := rmap.Instruction{
		Type:         rmap.CommandPacket,
		Op:           rmap.OpWrite,
		Verify:       true,
		Reply:        true,
		Increment:    false,
		ReplyAddrLen: rmap.FourBytes,
	}
	got := rmap.ParseInstruction(i.Raw())
	if got != i {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, i)
	}
}

func TestConstructWriteCommandNoReplyAddress(t *testing.T) {
	p := &rmap.Packet{
		TargetLogicalAddress:    0xFE,
		Instruction:             rmap.Instruction{Op: rmap.OpWrite, ReplyAddrLen: rmap.ZeroBytes},
		DestKey:                 0x20,
		InitiatorLogicalAddress: 0x67,
		TransactionID:           0x1234,
		Address:                 0x00001000,
		Data:                    []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
	buf := make([]byte, 64)
	n, err := p.ConstructCommand(buf)
	if err != nil {
		t.Fatalf("ConstructCommand: %v", err)
	}
	want := rmap.WriteCommandOverhead + len(p.Data)
	if n != want {
		t.Fatalf("got %d bytes, want %d", n, want)
	}
	if rmap.ParseInstruction(buf[2]).Type != rmap.CommandPacket {
		t.Fatalf("instruction byte did not encode command type")
	}
}

func TestExtractWriteReply(t *testing.T) {
	// Hand-build a minimal write-reply per the 8-byte overhead layout.
	instr := rmap.Instruction{Type: rmap.ReplyPacket, Op: rmap.OpWrite}
	buf := []byte{
		0x67, // initiator logical address
		rmap.ProtocolIdentifier,
		instr.Raw(),
		0x00,       // status
		0xFE,       // target logical address
		0x12, 0x34, // transaction id
		0x00, // placeholder for header crc
	}
	headerCRC := crcOf(buf[:7])
	buf[7] = headerCRC

	var p rmap.Packet
	res := p.ExtractReply(buf, 0x67)
	if res != rmap.ExtractSuccess {
		t.Fatalf("ExtractReply: %v", res)
	}
	if p.TransactionID != 0x1234 || p.TargetLogicalAddress != 0xFE {
		t.Fatalf("unexpected fields: %+v", p)
	}
}

func TestExtractWriteReplyCrcError(t *testing.T) {
	instr := rmap.Instruction{Type: rmap.ReplyPacket, Op: rmap.OpWrite}
	buf := []byte{0x67, rmap.ProtocolIdentifier, instr.Raw(), 0x00, 0xFE, 0x12, 0x34, 0xFF}
	var p rmap.Packet
	if res := p.ExtractReply(buf, 0x67); res != rmap.ExtractCrcError {
		t.Fatalf("expected ExtractCrcError, got %v", res)
	}
}

func TestExtractIncorrectAddress(t *testing.T) {
	instr := rmap.Instruction{Type: rmap.ReplyPacket, Op: rmap.OpWrite}
	buf := []byte{0x67, rmap.ProtocolIdentifier, instr.Raw(), 0x00, 0xFE, 0x12, 0x34, 0x00}
	var p rmap.Packet
	if res := p.ExtractReply(buf, 0x99); res != rmap.ExtractIncorrectAddress {
		t.Fatalf("expected ExtractIncorrectAddress, got %v", res)
	}
}

func crcOf(b []byte) byte {
	// local reimplementation mirrors crc.RMAP8 for an independent check
	const poly = 0x07
	var crc uint8
	for _, v := range b {
		crc ^= v
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
