package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe         = errors.New("serve failed")
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrNotFound      = errors.New("not found")
	ErrUnprocessable = errors.New("window not analyzable")
	ErrUnavailable   = errors.New("service unavailable")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.kind != nil && e.err != nil:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	case e.kind != nil:
		return e.op + ": " + e.kind.Error()
	case e.err != nil:
		return e.op + ": " + e.err.Error()
	}
	return e.op
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap attaches op to err. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind classifies err as kind and attaches op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}
