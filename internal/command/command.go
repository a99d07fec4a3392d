// Package command implements the standard request handlers behind the
// connection engine: version query and message get/put. The engine itself
// performs no command-specific logic; everything vocabulary-aware lives
// here.
package command

import (
	"time"

	"go.uber.org/zap"

	"github.com/udslink/udslink/internal/protocol"
)

// Server version reported by GetVersion.
const (
	VersionMajor uint8 = 1
	VersionMinor uint8 = 0
)

// Dispatcher maps the command vocabulary onto responses. It is registered
// once at server construction and may be invoked concurrently from every
// connection worker.
type Dispatcher struct {
	log   *zap.SugaredLogger
	store *MessageStore
}

// New returns a Dispatcher whose message store expires posts after ttl
// (zero keeps them until overwritten).
func New(logger *zap.SugaredLogger, ttl time.Duration) *Dispatcher {
	return &Dispatcher{
		log:   logger,
		store: NewMessageStore(ttl),
	}
}

// Handle answers one validated request. Unknown commands map to an
// InvalidCommand status with an empty payload rather than an error; a
// request never goes unanswered.
func (d *Dispatcher) Handle(req *protocol.Packet) *protocol.Packet {
	switch req.Command() {
	case protocol.GetVersion:
		d.log.Debugf("CMD_GET_VERSION")
		return response(protocol.StatusSuccess, []byte{VersionMajor, VersionMinor})

	case protocol.GetMessage:
		d.log.Debugf("CMD_GET_MESSAGE")
		return response(protocol.StatusSuccess, []byte(d.store.Get()))

	case protocol.PutMessage:
		message := req.Text()
		d.log.Debugf("CMD_PUT_MESSAGE: %s", message)
		d.store.Put(message)
		return response(protocol.StatusSuccess, nil)

	default:
		d.log.Warnf("unknown command 0x%08X", req.Code)
		return response(protocol.StatusInvalidCommand, nil)
	}
}

func response(status protocol.Status, payload []byte) *protocol.Packet {
	return &protocol.Packet{
		Header:  protocol.Header{Code: uint32(status)},
		Payload: payload,
	}
}
