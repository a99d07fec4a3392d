package protocol

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadPacket_ReassemblesSplitWrites(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	sent := Encode(uint32(PutMessage), []byte("This is a message from client"))

	// Dribble the packet out in small chunks so the reader has to cope with
	// short reads on both the header and the payload.
	go func() {
		for i := 0; i < len(sent); i += 5 {
			end := i + 5
			if end > len(sent) {
				end = len(sent)
			}
			if _, err := clientSide.Write(sent[i:end]); err != nil {
				return
			}
		}
	}()

	got, err := ReadPacket(serverSide)
	if err != nil {
		t.Fatalf("ReadPacket() error = %v", err)
	}
	if diff := cmp.Diff(sent, got); diff != "" {
		t.Errorf("ReadPacket() returned different bytes, diff:\n%s", diff)
	}
	if _, err := Decode(got); err != nil {
		t.Errorf("Decode() of read packet failed: %v", err)
	}
}

func TestReadPacket_PeerDisconnect(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()

	go clientSide.Close()

	if _, err := ReadPacket(serverSide); !errors.Is(err, io.EOF) {
		t.Errorf("ReadPacket() on closed peer error = %v, want io.EOF", err)
	}
}

func TestReadPacket_DisconnectMidPacket(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()

	sent := Encode(uint32(PutMessage), []byte("This is a message from client"))
	go func() {
		// Header plus half the payload, then hang up.
		_, _ = clientSide.Write(sent[:HeaderSize+5])
		clientSide.Close()
	}()

	if _, err := ReadPacket(serverSide); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadPacket() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadPacket_BadHeaderDoesNotKillConnection(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	garbage := make([]byte, HeaderSize)
	for i := range garbage {
		garbage[i] = 0x55
	}
	valid := Encode(uint32(GetVersion), nil)

	go func() {
		_, _ = clientSide.Write(garbage)
		_, _ = clientSide.Write(valid)
	}()

	_, err := ReadPacket(serverSide)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("ReadPacket() on garbage error = %v, want ErrBadSignature", err)
	}
	if !Malformed(err) {
		t.Fatalf("Malformed(%v) = false, want true", err)
	}

	// The garbage consumed exactly one header's worth of bytes, so the next
	// read picks up the valid packet.
	got, err := ReadPacket(serverSide)
	if err != nil {
		t.Fatalf("ReadPacket() after discard error = %v", err)
	}
	if diff := cmp.Diff(valid, got); diff != "" {
		t.Errorf("packet after discard mismatch, diff:\n%s", diff)
	}
}

func TestReadAvailable_ReturnsWhatThePeerSent(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	sent := Encode(uint32(GetMessage), nil)
	go func() {
		_, _ = clientSide.Write(sent)
	}()

	buf := make([]byte, 512)
	n, err := ReadAvailable(serverSide, buf)
	if err != nil {
		t.Fatalf("ReadAvailable() error = %v", err)
	}
	if diff := cmp.Diff(sent, buf[:n]); diff != "" {
		t.Errorf("ReadAvailable() gathered different bytes, diff:\n%s", diff)
	}
}

func TestReadAvailable_PeerClose(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()

	go clientSide.Close()

	buf := make([]byte, 512)
	n, err := ReadAvailable(serverSide, buf)
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadAvailable() on closed peer error = %v, want io.EOF", err)
	}
	if n != 0 {
		t.Errorf("ReadAvailable() = %d bytes, want 0", n)
	}
}

func TestReadAvailable_StopsWhenBufferFull(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	go func() {
		_, _ = clientSide.Write([]byte("0123456789"))
	}()

	buf := make([]byte, 4)
	n, err := ReadAvailable(serverSide, buf)
	if err != nil {
		t.Fatalf("ReadAvailable() error = %v", err)
	}
	if n != len(buf) {
		t.Errorf("ReadAvailable() = %d bytes, want %d", n, len(buf))
	}
}
