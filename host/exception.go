package host

import "fmt"

// Exception is a host-level exception object.
// Its identity matters: handing back the same *Exception keeps class,
// message, code and chain intact.
type Exception struct {
	Class    *Class
	Message  string
	Code     int64
	Previous *Exception
}

var _ error = new(Exception)

func (e *Exception) Error() string {
	name := "Exception"
	if e.Class != nil {
		name = e.Class.Name()
	}
	if e.Message == "" {
		return name
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

func (e *Exception) Unwrap() error {
	if e.Previous == nil {
		return nil
	}
	return e.Previous
}

// Throw makes ex the pending exception.
// If another exception is pending, it becomes the tail of ex's Previous chain.
func (r *Runtime) Throw(ex *Exception) {
	if ex == nil {
		return
	}
	if r.exception != nil && r.exception != ex {
		tail := ex
		for tail.Previous != nil {
			if tail.Previous == r.exception {
				break
			}
			tail = tail.Previous
		}
		if tail.Previous == nil {
			tail.Previous = r.exception
		}
	}
	r.exception = ex
}

// ThrowException creates an exception of class and makes it pending.
func (r *Runtime) ThrowException(class *Class, message string, code int64) *Exception {
	if class == nil {
		class = r.defaultException
	}
	ex := &Exception{
		Class:   class,
		Message: message,
		Code:    code,
	}
	r.Throw(ex)
	return ex
}

// Exception returns the pending exception, or nil.
func (r *Runtime) Exception() *Exception {
	return r.exception
}

// TakeException returns the pending exception and clears it.
func (r *Runtime) TakeException() *Exception {
	ex := r.exception
	r.exception = nil
	return ex
}

func (r *Runtime) ClearException() {
	r.exception = nil
}

// Restore makes ex the pending exception exactly, without chaining.
// It is used to hand an intercepted exception back to the runtime.
func (r *Runtime) Restore(ex *Exception) {
	r.exception = ex
}

// DefaultException is the class used for exceptions raised by native code.
func (r *Runtime) DefaultException() *Class {
	return r.defaultException
}
