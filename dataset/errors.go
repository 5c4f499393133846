package dataset

import "github.com/pkg/errors"

// PreconditionError marks a programmer error: a caller violated one of the
// Dataset's documented preconditions (bad sample fraction, mismatched
// column length, duplicate or unknown column name, an out-of-range
// category code). These are not routine
// outcomes — per the package's error handling convention the caller is
// expected to treat them as fatal and halt, not retry.
type PreconditionError struct {
	Op  string
	msg string
}

func (e *PreconditionError) Error() string {
	return "dataset: " + e.Op + ": " + e.msg
}

func precondition(op, format string, args ...interface{}) error {
	return &PreconditionError{Op: op, msg: errors.Errorf(format, args...).Error()}
}

// IsPrecondition reports whether err is a PreconditionError, unwrapping as
// needed.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
