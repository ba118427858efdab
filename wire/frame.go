// Package wire decodes the fixed-size binary protocol test binaries
// write to their stdout pipe. Unlike a length-prefixed framing format,
// there is no framing byte and no escaping: every frame is exactly
// FrameSize bytes, C-ABI layout, native byte order, and every well-
// behaved child emits a whole number of frames.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	programNameSize  = 64
	functionNameSize = 32
	msgSize          = 64
)

// Byte offsets of the ProgramData union's three branches within a
// frame, matching the C layout in the child-side contract:
//
//	union ProgramData {
//	    Log      { program_name[64], function_name[32], msg[64], t uint32 }
//	    Register { program_name[64], function_name[32] }
//	    Status   { program_name[64], function_name[32], t uint32 }
//	}
//
// The union's size is the size of its largest branch (Log, 164
// bytes); info_type follows immediately at that offset. This gives a
// fixed FrameSize of 168 bytes for every event kind.
const (
	offProgramName  = 0
	offFunctionName = offProgramName + programNameSize
	offLogMsg       = offFunctionName + functionNameSize
	offLogKind      = offLogMsg + msgSize
	offStatusKind   = offFunctionName + functionNameSize

	unionSize = offLogKind + 4 // Log is the largest branch: 64+32+64+4

	// FrameSize is F = sizeof(ProcessInfo): the union above plus the
	// external uint32 tag. Every read from a child's pipe is exactly
	// this many bytes.
	FrameSize = unionSize + 4

	offInfoType = unionSize
)

// Kind tags a decoded Event by which ProgramData branch it carries.
type Kind uint32

const (
	KindRegister Kind = iota
	KindStatus
	KindLog
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindStatus:
		return "status"
	case KindLog:
		return "log"
	default:
		return "unknown"
	}
}

// ErrUnknownKind is returned when info_type names a tag the decoder
// does not recognize. The current read attempt is discarded; the
// caller moves on to the next pipe.
var ErrUnknownKind = errors.New("wire: unknown frame kind")

// ErrShortFrame is returned when fewer than FrameSize bytes were
// available. Never fatal: the caller retries on a later pass.
var ErrShortFrame = errors.New("wire: short frame")

// Event is the decoded, in-memory representation of one frame. Only
// the fields relevant to Kind are meaningful; decoders never expose
// the raw union bytes beyond this package.
type Event struct {
	Kind         Kind
	ProgramName  string
	FunctionName string
	Status       uint32 // valid when Kind == KindStatus: 0 Success, 1 Fail
	LogKind      uint32 // valid when Kind == KindLog: 0 Debug, 1 Info, 2 Warning
	Msg          string // valid when Kind == KindLog
}

// Decode interprets exactly FrameSize bytes as a ProcessInfo frame.
// It returns ErrShortFrame if buf is too small, and ErrUnknownKind if
// the info_type tag is not one of Register/Status/Log. Both are
// non-fatal to the caller; the current read attempt is simply
// discarded.
func Decode(buf []byte) (Event, error) {
	if len(buf) < FrameSize {
		return Event{}, ErrShortFrame
	}

	kind := Kind(binary.NativeEndian.Uint32(buf[offInfoType : offInfoType+4]))

	ev := Event{
		Kind:        kind,
		ProgramName: trimNul(buf[offProgramName : offProgramName+programNameSize]),
	}

	switch kind {
	case KindRegister:
		ev.FunctionName = trimNul(buf[offFunctionName : offFunctionName+functionNameSize])
	case KindStatus:
		ev.FunctionName = trimNul(buf[offFunctionName : offFunctionName+functionNameSize])
		ev.Status = binary.NativeEndian.Uint32(buf[offStatusKind : offStatusKind+4])
	case KindLog:
		ev.FunctionName = trimNul(buf[offFunctionName : offFunctionName+functionNameSize])
		ev.Msg = trimNul(buf[offLogMsg : offLogMsg+msgSize])
		ev.LogKind = binary.NativeEndian.Uint32(buf[offLogKind : offLogKind+4])
	default:
		return Event{}, fmt.Errorf("%w: info_type=%d", ErrUnknownKind, uint32(kind))
	}

	return ev, nil
}

// trimNul returns the UTF-8 prefix of b up to (not including) the
// first NUL byte, matching the child-side NUL-padded fixed arrays.
func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Encode renders an Event back into a FrameSize-byte buffer. It is
// used by tests to synthesize child output and, in principle, by any
// future child-side emitter written in Go.
func Encode(ev Event) []byte {
	buf := make([]byte, FrameSize)
	copy(buf[offProgramName:offProgramName+programNameSize], ev.ProgramName)

	switch ev.Kind {
	case KindRegister:
		copy(buf[offFunctionName:offFunctionName+functionNameSize], ev.FunctionName)
	case KindStatus:
		copy(buf[offFunctionName:offFunctionName+functionNameSize], ev.FunctionName)
		binary.NativeEndian.PutUint32(buf[offStatusKind:offStatusKind+4], ev.Status)
	case KindLog:
		copy(buf[offFunctionName:offFunctionName+functionNameSize], ev.FunctionName)
		copy(buf[offLogMsg:offLogMsg+msgSize], ev.Msg)
		binary.NativeEndian.PutUint32(buf[offLogKind:offLogKind+4], ev.LogKind)
	}

	binary.NativeEndian.PutUint32(buf[offInfoType:offInfoType+4], uint32(ev.Kind))
	return buf
}
