package rtree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New when the node size parameters or
	// options cannot produce a valid tree.
	ErrInvalidConfig = textErr("invalid configuration")

	// ErrCorrupt is returned by Check when the tree violates one of its
	// structural invariants.
	ErrCorrupt = textErr("corrupt tree")

	// Stop is a special sentinel error that can be returned from a SearchFunc
	// callback to end the search early without an error.
	Stop = errors.New("stop")
)

const packageName = "rtree: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

// wrapErr prefixes a sentinel with a formatted message, keeping the sentinel
// visible to errors.Is.
func wrapErr(sentinel error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, a...)...)
}

func fmtPanic(format string, a ...interface{}) {
	panic(fmt.Sprintf(packageName+format, a...))
}
