package wire

import "errors"

// ErrShortRead is returned by DecodeFrame when src does not yet contain a
// complete frame. It is not a framing error: the caller should read more
// bytes from the socket and retry without discarding what it already has.
var ErrShortRead = errors.New("wire: need more bytes")

// FramingError reports a malformed frame: a bad length discriminant, a
// frame whose declared length exceeds MaxPayloadBytes, a zero-length
// frame, or a body that fails to deserialize. It is always fatal to the
// session that produced it.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "wire: framing error: " + e.Reason
}

// ProtocolError reports a message that is well-formed on the wire but
// invalid given the session's current state (an unexpected variant, a bad
// chat channel, a version mismatch). Fatal to the session, distinct from a
// FramingError so callers can tell "malformed bytes" from "well-formed but
// not allowed right now".
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "wire: protocol error: " + e.Reason
}
