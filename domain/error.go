package domain

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

var (
	// ErrNotFound will throw if a requested tile or transit record file is not exists
	ErrNotFound = errors.New("requested item is not found")
	// ErrDeserialize will throw if a tile or transit record cannot be decoded
	ErrDeserialize = errors.New("cannot deserialize data")
	// ErrBadFeedData will throw if a transit record carries malformed field values
	ErrBadFeedData = errors.New("transit feed data is not valid")
	// ErrBadParamInput will throw if the given config or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
	// ErrInconsistentTile will throw if a rebuilt tile violates its structural counts
	ErrInconsistentTile = errors.New("tile structure is inconsistent")
)
