package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	rdebug "runtime/debug"

	"github.com/udslink/udslink/internal/core/debug"
	"github.com/udslink/udslink/internal/protocol"
)

// serveConnection runs the request/response loop for one connection and
// only returns once the connection is finished. Transport errors end the
// connection; malformed packets are discarded and the loop keeps waiting
// for a better one.
func (s *Server) serveConnection(sl *slot) {
	defer s.closeAndRecover(sl)

	for {
		raw, err := protocol.ReadPacket(sl.conn)
		if err != nil {
			if protocol.Malformed(err) {
				s.log.Warnf("discarding malformed packet (slot %d): %v", sl.index, err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Warnf("read error (slot %d): %v", sl.index, err)
			}
			return
		}

		request, err := protocol.Decode(raw)
		if err != nil {
			s.log.Warnf("discarding malformed packet (slot %d): %v", sl.index, err)
			continue
		}

		if s.config.Debugging.PacketLoggingEnabled {
			w := bufio.NewWriter(os.Stdout)
			debug.PrintPacket(debug.PrintPacketParams{
				Writer:       w,
				ClientPacket: true,
				Data:         raw,
			})
			_ = w.Flush()
		}

		response := s.handler.Handle(request)
		if response == nil {
			response = &protocol.Packet{
				Header: protocol.Header{Code: uint32(protocol.StatusError)},
			}
		}

		// The response carries the signature of the request it answers.
		response.Signature = request.Signature

		if err := writeFull(sl.conn, protocol.Marshal(response)); err != nil {
			s.log.Warnf("send response failed (slot %d): %v", sl.index, err)
			return
		}
	}
}

// closeAndRecover is the failsafe that catches any panics out of the
// handler, disconnects the client, and frees the slot regardless of the
// state of the connection.
func (s *Server) closeAndRecover(sl *slot) {
	if r := recover(); r != nil {
		s.log.Errorf("panic in connection worker (slot %d): %v\n%s", sl.index, r, rdebug.Stack())
	}

	_ = sl.conn.Close()
	s.slots.release(sl)

	s.log.Infof("disconnected client (slot %d)", sl.index)
}

// writeFull writes all of data to conn, looping on short writes.
func writeFull(conn net.Conn, data []byte) error {
	sent := 0
	for sent < len(data) {
		n, err := conn.Write(data[sent:])
		if err != nil {
			return err
		}
		sent += n
	}
	return nil
}
