package protocol

import "encoding/binary"

// Checksum computes the 16-bit one's-complement sum of buf (RFC 1071).
// The buffer is treated as a sequence of little-endian 16-bit words; an odd
// trailing byte is added zero-extended. Sealing a packet means zeroing its
// checksum field and storing the result of this function; verifying means
// recomputing over the packet as received and expecting zero.
func Checksum(buf []byte) uint16 {
	var sum uint32

	for len(buf) >= 2 {
		sum += uint32(binary.LittleEndian.Uint16(buf))
		buf = buf[2:]
	}
	if len(buf) == 1 {
		sum += uint32(buf[0])
	}

	// Fold the carries back into the low 16 bits.
	for sum>>16 != 0 {
		sum = sum>>16 + sum&0xFFFF
	}

	return ^uint16(sum)
}
