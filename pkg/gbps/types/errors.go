package types

import "errors"

// Decode errors, returned by Peer/Message wire codecs. A single malformed
// frame is dropped by its caller; these are never fatal to a running service.
var (
	ErrMissingSeparator = errors.New("peer: separator not found")
	ErrInvalidAge       = errors.New("peer: invalid age, exactly two bytes expected after separator")
	ErrInvalidAddress   = errors.New("peer: address is not valid utf-8")
	ErrInvalidType      = errors.New("message: invalid type byte")
	ErrTruncated        = errors.New("message: frame truncated")
	ErrInvalidPeer      = errors.New("message: embedded peer failed to decode")
)

// Construction/bind errors. Fatal to the Service instance that hits them.
var (
	ErrConfigInvalid = errors.New("gbps: invalid configuration")
	ErrBindFailed    = errors.New("gbps: listener bind failed")
)

// Transport errors, returned by Network.Send. Logged by the caller and
// otherwise ignored - gossip is tolerant of individual unreachable peers.
var (
	ErrConnectRefused = errors.New("gbps: connection refused")
	ErrWriteFailed    = errors.New("gbps: write failed")
	ErrReadFailed     = errors.New("gbps: read failed")
)
