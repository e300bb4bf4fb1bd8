package cass

import "fmt"

type ErrorKind int

const (
	// the store cannot express the requested feature. never data dependent.
	KindUnsupported ErrorKind = iota + 1
	// malformed caller input
	KindInvalidArgument
	// incompatible wiring or an unresolved schema name
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported operation"
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	}
	return "unknown"
}

type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("cass: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("cass: %s: %s: %s", e.Kind, e.Op, e.Msg)
}

/*
errors.Is(err, cass.ErrUnsupported) matches any *Error of that kind,
no matter which operation raised it.
*/
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnsupported     = &Error{Kind: KindUnsupported}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
)

func unsupported(op, msg string) error {
	return &Error{Kind: KindUnsupported, Op: op, Msg: msg}
}

func invalidArgument(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func invalidState(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Op: op, Msg: fmt.Sprintf(format, args...)}
}
