package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Validation failures returned by Decode. All of them mean the same thing to
// a dispatcher: discard the packet without handing it to application logic.
var (
	ErrTruncated    = errors.New("packet shorter than header")
	ErrBadSignature = errors.New("invalid packet signature")
	ErrBadLength    = errors.New("packet length mismatch")
	ErrBadChecksum  = errors.New("packet checksum mismatch")
	ErrTooLarge     = errors.New("payload exceeds maximum size")
)

// Malformed reports whether err is one of the packet validation failures,
// as opposed to a transport error.
func Malformed(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrBadSignature) ||
		errors.Is(err, ErrBadLength) ||
		errors.Is(err, ErrBadChecksum) ||
		errors.Is(err, ErrTooLarge)
}

// Marshal serializes p into a sealed wire buffer. DataLen is set from the
// payload, a zero Signature is replaced with the protocol magic, and the
// checksum is computed over the whole packet with the checksum field zeroed.
func Marshal(p *Packet) []byte {
	if p.Signature == 0 {
		p.Signature = Signature
	}
	p.DataLen = uint32(len(p.Payload))

	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], p.Signature)
	binary.LittleEndian.PutUint32(buf[4:8], p.Code)
	binary.LittleEndian.PutUint32(buf[8:12], p.DataLen)
	copy(buf[HeaderSize:], p.Payload)

	p.Checksum = Checksum(buf)
	binary.LittleEndian.PutUint16(buf[12:14], p.Checksum)

	return buf
}

// Encode builds and seals a packet carrying code and payload.
func Encode(code uint32, payload []byte) []byte {
	return Marshal(&Packet{Header: Header{Code: code}, Payload: payload})
}

// Decode validates buf as one complete packet and unpacks it. Checks run in
// order: buffer long enough for the header, signature, declared length
// against the bytes actually received, checksum self-verifies to zero. The
// returned packet owns a copy of the payload.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(buf))
	}

	var h Header
	h.Signature = binary.LittleEndian.Uint32(buf[0:4])
	h.Code = binary.LittleEndian.Uint32(buf[4:8])
	h.DataLen = binary.LittleEndian.Uint32(buf[8:12])
	h.Checksum = binary.LittleEndian.Uint16(buf[12:14])

	if h.Signature != Signature {
		return nil, fmt.Errorf("%w: 0x%08X", ErrBadSignature, h.Signature)
	}
	if h.DataLen > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, h.DataLen)
	}
	if int(h.DataLen)+HeaderSize != len(buf) {
		return nil, fmt.Errorf("%w: header declares %d, received %d",
			ErrBadLength, int(h.DataLen)+HeaderSize, len(buf))
	}
	if Checksum(buf) != 0 {
		return nil, ErrBadChecksum
	}

	payload := make([]byte, h.DataLen)
	copy(payload, buf[HeaderSize:])

	return &Packet{Header: h, Payload: payload}, nil
}
