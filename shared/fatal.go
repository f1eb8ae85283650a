package shared

import (
	"fmt"
	"sync/atomic"
)

// FatalKind classifies an unrecoverable condition.
type FatalKind int

const (
	// OutOfMemory is raised by an allocator that cannot satisfy a request.
	OutOfMemory FatalKind = iota + 1
	// IteratorMisuse is raised when a dictionary changed under an unsafe iterator.
	IteratorMisuse
)

func (k FatalKind) String() string {
	switch k {
	case OutOfMemory:
		return "out of memory"
	case IteratorMisuse:
		return "iterator misuse"
	default:
		return fmt.Sprintf("fatal(%d)", int(k))
	}
}

// FatalError describes a condition after which the data structure that
// raised it must not be used any more.
type FatalError struct {
	Kind FatalKind
	Msg  string
}

func (e *FatalError) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// FatalHandler receives fatal errors. A handler that returns lets the caller
// continue on its own risk.
type FatalHandler func(err *FatalError)

var fatalHandler atomic.Pointer[FatalHandler]

// defaultFatalHandler logs the error and panics with it, so an embedding
// application can still recover at its top level.
func defaultFatalHandler(err *FatalError) {
	Logger().Error().Str("kind", err.Kind.String()).Msg(err.Msg)
	panic(err)
}

// SetFatalHandler installs fn as fatal handler and returns the previous one.
// A nil fn restores the default handler.
func SetFatalHandler(fn FatalHandler) FatalHandler {
	if fn == nil {
		fn = defaultFatalHandler
	}
	prev := fatalHandler.Swap(&fn)
	if prev == nil {
		return defaultFatalHandler
	}
	return *prev
}

// Fatal hands err to the installed fatal handler.
func Fatal(err *FatalError) {
	if fn := fatalHandler.Load(); fn != nil {
		(*fn)(err)
		return
	}
	defaultFatalHandler(err)
}
