// Package crc implements the checksums used by the framing layers: CRC-16/
// CCITT for SIP packets and CRC-8 (ECSS-E-ST-50-52C) for RMAP headers and
// data. No repository in the retrieval pack carries a CRC implementation;
// both tables are generated once at package init from their polynomials,
// the standard approach when no third-party checksum library is on hand.
package crc

// ccittTable is the byte-driven lookup table for CRC-16/CCITT
// (polynomial 0x1021, MSB-first, no input/output reflection).
var ccittTable [256]uint16

func init() {
	const poly = 0x1021
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		ccittTable[i] = crc
	}
}

// CCITT16 computes CRC-16/CCITT over data, polynomial 0x1021, initial value
// 0xFFFF, no reflection, no final XOR — the checksum used by SIP packet
// framing (spec §4.2, §4.3).
func CCITT16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc << 8) ^ ccittTable[byte(crc>>8)^b]
	}
	return crc
}
