package session

import "fmt"

// PreconditionError reports an operation invoked before its required state
// exists, e.g. toggling gathering with no device selected.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// BusyError reports a toggle invoked while its previous command is still in
// flight.
type BusyError struct {
	Op string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: previous request still pending", e.Op)
}
