package api

import (
	"encoding/json"
	"fmt"
)

// TransportError wraps a network-level failure: the server was unreachable
// or the connection died mid-request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response that could not be parsed as JSON.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response. The body is parsed unconditionally
// and kept for inspection by the caller.
type ServerError struct {
	Op         string
	StatusCode int
	Body       json.RawMessage
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, string(e.Body))
}
