package store

import "github.com/ashstone-io/testpool/types"

// EventKind tags an Event by which Store handler it dispatches to.
// This is the store package's own in-memory representation; it is
// intentionally decoupled from wire.Kind so that store has no
// dependency on the wire protocol's byte layout.
type EventKind uint8

const (
	EventRegister EventKind = iota
	EventStatus
	EventLog
)

func (k EventKind) String() string {
	switch k {
	case EventRegister:
		return "register"
	case EventStatus:
		return "status"
	case EventLog:
		return "log"
	default:
		return "unknown"
	}
}

// Event is the decoded, store-facing representation of one frame,
// already trimmed of NUL padding by the wire decoder.
type Event struct {
	Kind         EventKind
	ProgramName  string
	FunctionName string
	Status       types.Status
	LogKind      types.LogKind
	Msg          string
}
