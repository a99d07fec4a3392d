// Package debug provides optional packet dumps for troubleshooting wire
// traffic between the server and its clients.
package debug

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/udslink/udslink/internal/protocol"
)

var dumpConfig = &spew.ConfigState{Indent: "  ", DisableMethods: true}

// PrintPacketParams holds the arguments to PrintPacket.
type PrintPacketParams struct {
	Writer       io.Writer
	ClientPacket bool
	Data         []byte
}

// PrintPacket writes a decoded view of the packet header followed by a hex
// dump of the full packet. Data that does not decode is dumped raw so that
// malformed packets can still be inspected.
func PrintPacket(params PrintPacketParams) {
	direction := "server->client"
	if params.ClientPacket {
		direction = "client->server"
	}

	pkt, err := protocol.Decode(params.Data)
	if err != nil {
		fmt.Fprintf(params.Writer, "[%s] undecodable packet (%v):\n%s",
			direction, err, hex.Dump(params.Data))
		return
	}

	fmt.Fprintf(params.Writer, "[%s] %s%s", direction,
		dumpConfig.Sdump(pkt.Header), hex.Dump(params.Data))
}
