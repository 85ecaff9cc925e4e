package core

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"

	promlog "github.com/prometheus/common/log"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// Network is the TCP transport: one accept loop per bound address,
// delivering decoded Message values onto a channel, and a one-shot
// connect-write-close Send for the outbound side. There is no connection
// pool and no half-open detection - exactly one TCP connection per
// message, per spec.
type Network struct {
	log types.Logger
}

// NewNetwork returns a Network that logs message-level events through the
// given per-node logger.
func NewNetwork(logger types.Logger) *Network {
	return &Network{log: logger}
}

// StartListener binds addr and spawns an accept loop on invoker that
// decodes every inbound connection into a Message and delivers it on
// inbound. Before each Accept, shutdown is checked; once set, the loop
// returns. Acceptance/decode failures are logged and never abort the loop.
//
// Returns ErrBindFailed if the address cannot be bound - this is fatal to
// the Service that called it.
func (n *Network) StartListener(invoker Invoker, addr string, inbound chan<- types.Message, shutdown *atomic.Bool) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBindFailed, err)
	}
	n.log.Infof("listening on %s", addr)

	invoker.Spawn(func() {
		n.acceptLoop(listener, inbound, shutdown)
	})
	return listener, nil
}

func (n *Network) acceptLoop(listener net.Listener, inbound chan<- types.Message, shutdown *atomic.Bool) {
	defer n.log.Debug("listener exiting")
	// The listener is the sole writer on inbound; it alone closes the
	// channel once its own loop exits, so the receiver's range over
	// inbound terminates naturally instead of racing a close from Service.
	defer close(inbound)
	for {
		if shutdown.Load() {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			if shutdown.Load() {
				return
			}
			// No peer/message context exists yet at this point, so this
			// goes through the bare transport-level logger rather than
			// the per-node one.
			promlog.Errorf("accept error on %s: %v", listener.Addr(), err)
			continue
		}
		n.handleConnection(conn, inbound)
	}
}

// handleConnection reads the connection to EOF - the only framing
// convention this protocol uses, since every sender writes exactly one
// frame and closes - decodes it, and delivers it to inbound. Delivery is
// wrapped in a recover, so a panic from the channel send is logged instead
// of crashing the listener. acceptLoop closes inbound only after its own
// loop has returned, so that close never races this send; if the receiver
// has stopped reading, the send blocks once inbound's buffer is full.
func (n *Network) handleConnection(conn net.Conn, inbound chan<- types.Message) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			n.log.Warnf("channel send failed (receiver exited?): %v", r)
		}
	}()

	data, err := io.ReadAll(conn)
	if err != nil {
		n.log.Errorf("%s from %s: %v", types.ErrReadFailed, conn.RemoteAddr(), err)
		return
	}

	message, err := types.DecodeMessage(data)
	if err != nil {
		n.log.Warnf("dropping malformed frame from %s: %v", conn.RemoteAddr(), err)
		return
	}

	inbound <- message
}

// Send opens a fresh outbound TCP connection to addr, writes the encoded
// frame, and closes. Failures are returned to the caller, which logs and
// does not retry.
func (n *Network) Send(addr string, msg types.Message) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrConnectRefused, err)
	}
	defer conn.Close()

	if _, err := conn.Write(msg.Encode()); err != nil {
		return fmt.Errorf("%w: %v", types.ErrWriteFailed, err)
	}
	return nil
}
