package starhost

import (
	"fmt"

	"github.com/reusee/callbridge/host"
	"go.starlark.net/starlark"
)

// ExceptionError is a host exception surfacing in starlark code.
type ExceptionError struct {
	Exception *host.Exception
}

var _ error = new(ExceptionError)

func (e *ExceptionError) Error() string {
	return "uncaught " + e.Exception.Error()
}

func (e *ExceptionError) Unwrap() error {
	return e.Exception
}

func hostError(err error) error {
	if ex, ok := err.(*host.Exception); ok {
		return &ExceptionError{
			Exception: ex,
		}
	}
	return err
}

// exceptionValue exposes a host exception to scripts.
type exceptionValue struct {
	ex *host.Exception
}

var _ starlark.HasAttrs = new(exceptionValue)

func (e *exceptionValue) String() string {
	return fmt.Sprintf("<exception %s>", e.ex.Error())
}

func (e *exceptionValue) Type() string {
	return "exception"
}

func (e *exceptionValue) Freeze() {}

func (e *exceptionValue) Truth() starlark.Bool {
	return starlark.True
}

func (e *exceptionValue) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: exception")
}

var exceptionAttrs = []string{"class", "code", "message", "previous"}

func (e *exceptionValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "class":
		if e.ex.Class == nil {
			return starlark.None, nil
		}
		return starlark.String(e.ex.Class.Name()), nil
	case "code":
		return starlark.MakeInt64(e.ex.Code), nil
	case "message":
		return starlark.String(e.ex.Message), nil
	case "previous":
		if e.ex.Previous == nil {
			return starlark.None, nil
		}
		return &exceptionValue{
			ex: e.ex.Previous,
		}, nil
	}
	return nil, nil
}

func (e *exceptionValue) AttrNames() []string {
	return exceptionAttrs
}
