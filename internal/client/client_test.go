package client

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/udslink/udslink/internal/protocol"
)

func newTestListener(t *testing.T) (net.Listener, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "client-test.sock")
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("error initializing test listener: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })
	return listener, path
}

func TestDial_FailsWithoutServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobody-home.sock")

	if _, err := Dial(path, 0); err == nil {
		t.Error("Dial() with no server listening succeeded, want error")
	}
}

func TestClient_SendReceivesSealedResponse(t *testing.T) {
	listener, path := newTestListener(t)

	// One-request echo peer standing in for the server.
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		raw, err := protocol.ReadPacket(conn)
		if err != nil {
			return
		}
		req, err := protocol.Decode(raw)
		if err != nil {
			return
		}
		resp := protocol.Encode(uint32(protocol.StatusSuccess), req.Payload)
		_, _ = conn.Write(resp)
	}()

	c, err := Dial(path, 0)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	payload := []byte("This is a message from client")
	resp, err := c.Send(protocol.PutMessage, payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if resp.Status() != protocol.StatusSuccess {
		t.Errorf("status = %d, want success", resp.Status())
	}
	if diff := cmp.Diff(payload, resp.Payload); diff != "" {
		t.Errorf("echoed payload mismatch, diff:\n%s", diff)
	}
}

func TestClient_SendFailsOnInvalidResponse(t *testing.T) {
	listener, path := newTestListener(t)

	// A peer that answers with a corrupted packet.
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := protocol.ReadPacket(conn); err != nil {
			return
		}
		resp := protocol.Encode(uint32(protocol.StatusSuccess), []byte{0x01})
		resp[len(resp)-1] ^= 0xFF
		_, _ = conn.Write(resp)
	}()

	c, err := Dial(path, 0)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if _, err := c.Send(protocol.GetVersion, nil); err == nil {
		t.Error("Send() with a corrupt response succeeded, want validation failure")
	}
}
