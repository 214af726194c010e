package bridge

import (
	"fmt"

	"github.com/reusee/callbridge/host"
)

// Exception is a failure raised by native code.
// Only Message and Code reach the host.
type Exception struct {
	Message string
	Code    int64
}

var _ error = new(Exception)

func (e *Exception) Error() string {
	return e.Message
}

func Errorf(format string, args ...any) error {
	return &Exception{
		Message: fmt.Sprintf(format, args...),
	}
}

// OrigException carries a host exception that was raised while native code
// called back into host code. Returning it from a target, wrapped or not,
// makes the runtime see the original exception again.
type OrigException struct {
	exception *host.Exception
}

var _ error = new(OrigException)

func (o *OrigException) Error() string {
	return o.exception.Error()
}

func (o *OrigException) Unwrap() error {
	return o.exception
}

func (o *OrigException) Exception() *host.Exception {
	return o.exception
}

// Restore makes the original exception pending again.
func (o *OrigException) Restore(rt *host.Runtime) {
	rt.Restore(o.exception)
}
