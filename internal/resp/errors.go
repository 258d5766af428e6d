package resp

import "fmt"

// ProtocolError reports a reply that violates the wire grammar: an unknown
// frame marker, a missing terminator, or a header line that is not a number.
//
// The decoder cannot resynchronise after one, so the connection that produced
// it must be closed.
type ProtocolError struct {
	Message string
	Offset  int // byte offset within the chunk being fed
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation at offset %d: %s", e.Offset, e.Message)
}

func protocolErrorf(offset int, format string, args ...any) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...), Offset: offset}
}
