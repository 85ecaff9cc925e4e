package types

// MessageType distinguishes a gossip request (the initiator pushing/probing)
// from a response (the reply to a pull).
type MessageType uint8

const (
	Request MessageType = iota
	Response
)

const (
	typeFlagRequest byte = 0x80 // high bit set = Request
	typeFlagMask    byte = 0x80
)

// Message is the request/response envelope exchanged between nodes.
// View is nil for an absent buffer (a pure probe request, or a response
// carrying nothing). The wire frame only has one N=0 encoding, so a
// present-but-empty view is indistinguishable from absent once it leaves
// the process and decodes back as nil; in practice build_buffer always
// includes at least the sender itself, so an outbound present view is
// never actually empty.
type Message struct {
	Sender string
	Type   MessageType
	View   []Peer // nil == absent
}

// NewRequest builds a Request envelope.
func NewRequest(sender string, view []Peer) Message {
	return Message{Sender: sender, Type: Request, View: view}
}

// NewResponse builds a Response envelope.
func NewResponse(sender string, view []Peer) Message {
	return Message{Sender: sender, Type: Response, View: view}
}

// Encode serializes the message per the wire frame:
//
//	byte 0:        high bit = type flag, low 7 bits zero
//	byte 1:        sender length L_s (0-255)
//	bytes 2..2+L_s: sender address
//	byte 2+L_s:    view size N (0-255); N=0 means absent view
//	N times:       one length byte + that many bytes of Peer.Encode()
func (m Message) Encode() []byte {
	out := make([]byte, 0, 3+len(m.Sender))
	var typeByte byte
	if m.Type == Request {
		typeByte = typeFlagRequest
	}
	out = append(out, typeByte)
	out = append(out, byte(len(m.Sender)))
	out = append(out, m.Sender...)

	if m.View == nil {
		out = append(out, 0)
		return out
	}

	out = append(out, byte(len(m.View)))
	for _, peer := range m.View {
		encoded := peer.Encode()
		out = append(out, byte(len(encoded)))
		out = append(out, encoded...)
	}
	return out
}

// DecodeMessage parses a frame produced by Encode. Fails with ErrTruncated
// if any declared length runs past the buffer, and ErrInvalidPeer if an
// embedded peer fails to decode. The type byte's low 7 bits are ignored,
// per the spec's reserved-bits note.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) < 2 {
		return Message{}, ErrTruncated
	}

	msgType := Response
	if data[0]&typeFlagMask != 0 {
		msgType = Request
	}

	senderLen := int(data[1])
	if len(data) < 2+senderLen+1 {
		return Message{}, ErrTruncated
	}
	sender := string(data[2 : 2+senderLen])

	viewSizeIdx := 2 + senderLen
	viewSize := int(data[viewSizeIdx])
	if viewSize == 0 {
		return Message{Sender: sender, Type: msgType, View: nil}, nil
	}

	peers := make([]Peer, 0, viewSize)
	idx := viewSizeIdx + 1
	for i := 0; i < viewSize; i++ {
		if idx >= len(data) {
			return Message{}, ErrTruncated
		}
		peerLen := int(data[idx])
		idx++
		if idx+peerLen > len(data) {
			return Message{}, ErrTruncated
		}
		peer, err := DecodePeer(data[idx : idx+peerLen])
		if err != nil {
			return Message{}, ErrInvalidPeer
		}
		peers = append(peers, peer)
		idx += peerLen
	}

	return Message{Sender: sender, Type: msgType, View: peers}, nil
}
