package sip_test

import (
	"bytes"
	"testing"

	"github.com/tuhh-sat/pluto-core/sip"
)

// TestSipRequestEncoding exercises spec §8 scenario 2: workerId=0x05,
// counter=0x01, type=0x10, payload=[0xAA,0xBB].
func TestSipRequestEncoding(t *testing.T) {
	buf := make([]byte, sip.MaxPacketLength)
	w := sip.NewPacketWriter(buf, sip.MaxPayloadLength)
	w.SetWorkerId(0x05)
	w.SetCounter(0x01)
	w.SetType(0x10)
	w.SetPayloadData([]byte{0xAA, 0xBB})

	if res := w.Update(); res != sip.Success {
		t.Fatalf("Update: %v", res)
	}
	got, err := w.GetSliceIfFinalized()
	if err != nil {
		t.Fatalf("GetSliceIfFinalized: %v", err)
	}
	// length = 5, header bytes as given, payload, then crc.
	wantPrefix := []byte{0x00, 0x05, 0x05, 0x01, 0x10, 0xAA, 0xBB}
	if !bytes.Equal(got[:7], wantPrefix) {
		t.Fatalf("got %x, want prefix %x", got, wantPrefix)
	}
	if len(got) != 9 {
		t.Fatalf("expected 9 wire bytes, got %d", len(got))
	}
}

func TestSipRoundTrip(t *testing.T) {
	buf := make([]byte, sip.MaxPacketLength)
	w := sip.NewPacketWriter(buf, sip.MaxPayloadLength)
	w.SetWorkerId(7)
	w.SetCounter(42)
	w.SetType(3)
	payload := []byte("hello outpost")
	w.SetPayloadData(payload)

	reader, err := w.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	if reader.GetWorkerId() != 7 || reader.GetCounter() != 42 || reader.GetType() != 3 {
		t.Fatalf("header mismatch: %+v", reader)
	}
	if !bytes.Equal(reader.GetPayloadData(), payload) {
		t.Fatalf("payload mismatch: got %q want %q", reader.GetPayloadData(), payload)
	}
}

func TestSipCrcErrorOnBitFlip(t *testing.T) {
	buf := make([]byte, sip.MaxPacketLength)
	w := sip.NewPacketWriter(buf, sip.MaxPayloadLength)
	w.SetWorkerId(1)
	w.SetCounter(1)
	w.SetType(1)
	w.SetPayloadData([]byte{0x01, 0x02, 0x03})
	if res := w.Update(); res != sip.Success {
		t.Fatalf("Update: %v", res)
	}
	slice, _ := w.GetSliceIfFinalized()
	corrupted := append([]byte(nil), slice...)
	corrupted[5] ^= 0x01 // flip a payload bit

	reader := sip.NewPacketReader(corrupted)
	if res := reader.ReadPacket(); res != sip.CrcError {
		t.Fatalf("expected CrcError, got %v", res)
	}
}

func TestSipLengthErrorTooSmall(t *testing.T) {
	buf := make([]byte, 4)
	w := sip.NewPacketWriter(buf, sip.MaxPayloadLength)
	w.SetPayloadData([]byte{0x01, 0x02, 0x03})
	if res := w.Update(); res != sip.LengthErrorTooSmall {
		t.Fatalf("expected LengthErrorTooSmall, got %v", res)
	}
}

func TestSipPayloadTooLarge(t *testing.T) {
	buf := make([]byte, 16+9)
	w := sip.NewPacketWriter(buf, 4)
	w.SetPayloadData(make([]byte, 100))
	// SetPayloadData leaves the writer un-finalized, and Update refuses an
	// over-limit payload, so no finalized slice is available.
	if _, err := w.GetSliceIfFinalized(); err == nil {
		t.Fatalf("expected not-finalized error")
	}
}
