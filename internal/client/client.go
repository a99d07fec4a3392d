// Package client implements a single-shot consumer of the packet protocol:
// connect, send one framed request, block for one framed response.
package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/udslink/udslink/internal/protocol"
)

// ErrRequestFailed is returned when the server answers with a non-success
// status.
var ErrRequestFailed = errors.New("client: request failed")

// retryInterval is how long Dial waits between connection attempts while
// the server is not yet listening.
const retryInterval = time.Second

// Client holds one connection to the server. It is stateless beyond the
// socket and is not safe for concurrent use.
type Client struct {
	conn net.Conn
}

// Dial connects to the Unix domain socket at path, retrying once per second
// up to retryBudget additional times if the server is not yet listening.
func Dial(path string, retryBudget int) (*Client, error) {
	var conn net.Conn
	var err error

	for {
		conn, err = net.Dial("unix", path)
		if err == nil {
			break
		}
		if retryBudget <= 0 {
			return nil, fmt.Errorf("connecting to %s: %w", path, err)
		}
		retryBudget--
		time.Sleep(retryInterval)
	}

	return &Client{conn: conn}, nil
}

// Send seals and writes one request, then blocks for the response. The
// returned packet is validated and owned by the caller. Any transport or
// validation failure is fatal to the session.
func (c *Client) Send(cmd protocol.Command, payload []byte) (*protocol.Packet, error) {
	request := protocol.Encode(uint32(cmd), payload)
	if err := c.write(request); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	raw, err := protocol.ReadPacket(c.conn)
	if err != nil {
		return nil, fmt.Errorf("receiving response: %w", err)
	}

	response, err := protocol.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("validating response: %w", err)
	}
	return response, nil
}

// SendRaw writes data to the server as-is, with no framing or sealing.
// Useful for tooling and tests that need to exercise the server's handling
// of arbitrary byte streams.
func (c *Client) SendRaw(data []byte) error {
	return c.write(data)
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(data []byte) error {
	sent := 0
	for sent < len(data) {
		n, err := c.conn.Write(data[sent:])
		if err != nil {
			return err
		}
		sent += n
	}
	return nil
}

// GetVersion asks the server for its version.
func (c *Client) GetVersion() (major, minor uint8, err error) {
	resp, err := c.Send(protocol.GetVersion, nil)
	if err != nil {
		return 0, 0, err
	}
	if resp.Status() != protocol.StatusSuccess {
		return 0, 0, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.Status())
	}
	if len(resp.Payload) < protocol.VersionPayloadSize {
		return 0, 0, fmt.Errorf("version payload too short: %d bytes", len(resp.Payload))
	}
	return resp.Payload[0], resp.Payload[1], nil
}

// GetMessage fetches the server's current message text.
func (c *Client) GetMessage() (string, error) {
	resp, err := c.Send(protocol.GetMessage, nil)
	if err != nil {
		return "", err
	}
	if resp.Status() != protocol.StatusSuccess {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.Status())
	}
	return resp.Text(), nil
}

// PutMessage posts a message for the server to store.
func (c *Client) PutMessage(message string) error {
	resp, err := c.Send(protocol.PutMessage, []byte(message))
	if err != nil {
		return err
	}
	if resp.Status() != protocol.StatusSuccess {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.Status())
	}
	return nil
}
