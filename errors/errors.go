package errors

import "errors"

// ErrConnectionFailed indicates a key publisher was unreachable.
var ErrConnectionFailed = errors.New("connection failed")
