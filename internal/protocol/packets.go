// Package protocol defines the wire format shared by the server and client:
// a fixed 14-byte little-endian header followed by a variable payload, sealed
// with a one's-complement checksum.
package protocol

import "bytes"

const (
	// Signature marks a well-formed packet and guards against stray bytes
	// from a desynchronized stream.
	Signature uint32 = 0xDEADBEEF

	// HeaderSize is the byte-exact size of the packet header on the wire.
	HeaderSize = 14

	// MaxPayloadSize bounds the variable portion of a packet. A header
	// declaring a larger payload is treated as malformed.
	MaxPayloadSize = 2048
)

// Command identifies a request type. Commands occupy a range distinct from
// the Status codes so a code can never be mistaken for the other direction.
type Command uint32

const (
	GetVersion Command = 0x8001 + iota
	GetMessage
	PutMessage
)

// Status identifies the outcome of a request on a response packet.
type Status uint32

const (
	StatusSuccess Status = iota
	StatusInvalidCommand
	StatusError
)

// Header is the fixed portion of every packet. The Code field is a command
// on a request and a status on a response; direction determines which view
// applies, there is no wire-level tag.
type Header struct {
	Signature uint32
	Code      uint32
	DataLen   uint32
	Checksum  uint16
}

// Packet is one complete header-plus-payload unit.
type Packet struct {
	Header
	Payload []byte
}

// Command returns the request view of the code field.
func (p *Packet) Command() Command { return Command(p.Code) }

// Status returns the response view of the code field.
func (p *Packet) Status() Status { return Status(p.Code) }

// Version payload bytes for a GetVersion response.
const VersionPayloadSize = 2

// Text returns the payload as a string with any trailing NUL trimmed.
// C peers send strings with the terminator included in DataLen.
func (p *Packet) Text() string {
	return string(bytes.TrimRight(p.Payload, "\x00"))
}
