package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// pollWindow bounds how long ReadAvailable waits for more data to arrive
// after a successful read before deciding the peer is done sending.
const pollWindow = 10 * time.Millisecond

// ReadPacket reads one complete packet off a stream socket, using the
// header's DataLen to recover message boundaries the transport does not
// preserve. The header is read first (looping on short reads), its signature
// and declared length are sanity-checked before the length is trusted, and
// then exactly DataLen more bytes are read.
//
// A peer disconnect before any bytes arrive surfaces as io.EOF; a disconnect
// mid-packet as io.ErrUnexpectedEOF. A signature or length violation returns
// the bytes read so far along with a validation error so the caller can
// discard without tearing down the connection.
func ReadPacket(r io.Reader) ([]byte, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	if sig := binary.LittleEndian.Uint32(hdr[0:4]); sig != Signature {
		return hdr, fmt.Errorf("%w: 0x%08X", ErrBadSignature, sig)
	}
	dataLen := binary.LittleEndian.Uint32(hdr[8:12])
	if dataLen > MaxPayloadSize {
		return hdr, fmt.Errorf("%w: %d bytes", ErrTooLarge, dataLen)
	}

	buf := make([]byte, HeaderSize+int(dataLen))
	copy(buf, hdr)
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return buf, nil
}

// ReadAvailable gathers whatever the peer has sent into buf: it blocks for
// the first read, then keeps reading as long as more data shows up within a
// short poll window. It stops when the buffer is full, nothing more is
// pending, or the peer closed the connection, and returns the bytes
// gathered, which may be less than a full packet.
//
// This matches the accumulate-with-timeout behavior of older peers. New code
// should frame with ReadPacket; a sender whose write straddles the poll
// window can make this return a partial packet.
func ReadAvailable(conn net.Conn, buf []byte) (int, error) {
	pos := 0

	for pos < len(buf) {
		n, err := conn.Read(buf[pos:])
		pos += n

		if err != nil {
			_ = conn.SetReadDeadline(time.Time{})
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return pos, nil
			}
			if errors.Is(err, io.EOF) {
				if pos > 0 {
					return pos, nil
				}
				return 0, io.EOF
			}
			return pos, err
		}

		// Wait briefly for a straggling remainder of the packet.
		if err := conn.SetReadDeadline(time.Now().Add(pollWindow)); err != nil {
			return pos, err
		}
	}

	_ = conn.SetReadDeadline(time.Time{})
	return pos, nil
}
