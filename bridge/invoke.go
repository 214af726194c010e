package bridge

import (
	"errors"
	"fmt"

	"github.com/reusee/callbridge/host"
)

// invoke is called by the runtime for every registered function and method.
func invoke(rt *host.Runtime, fname []byte, ret *host.Zval, this *host.Object, argv []*host.Zval, argc int) {
	callable := lookup(decodeName(fname))

	f := &frame{
		rt:       rt,
		callable: callable,
		this:     this,
		argv:     argv[:argc],
		ret:      ret,
	}
	defer f.release()

	if err := execute(callable, Parameters{f: f}, Value{f: f}); err != nil {
		translate(rt, callable, err)
	}
}

func execute(c *Callable, params Parameters, result Value) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(p)
		}
	}()
	value, err := c.Invoke(params)
	if err != nil {
		return err
	}
	return result.Assign(value)
}

func recovered(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &Exception{
		Message: fmt.Sprint(p),
	}
}

// malformedFailure is the message for failure values that cannot describe
// themselves.
const malformedFailure = "native function failed"

// translate hands a failure to the runtime. A host exception intercepted by
// native code goes back untouched; anything else becomes a new exception of
// the runtime's default class carrying only the message.
func translate(rt *host.Runtime, c *Callable, err error) {
	orig, message, code := classify(err)
	if orig != nil {
		rt.Logger().Debug("forward host exception",
			"function", c.name,
			"exception", orig.Error(),
		)
		rt.Restore(orig)
		return
	}
	rt.Logger().Debug("native exception",
		"function", c.name,
		"message", message,
	)
	rt.ThrowException(rt.DefaultException(), message, code)
}

// classify never panics. Nil exceptions and Error methods that panic yield
// malformedFailure.
func classify(err error) (orig *host.Exception, message string, code int64) {
	defer func() {
		if p := recover(); p != nil {
			orig, message, code = nil, malformedFailure, 0
		}
	}()

	var o *OrigException
	if errors.As(err, &o) {
		if o == nil || o.exception == nil {
			return nil, malformedFailure, 0
		}
		return o.exception, "", 0
	}

	var native *Exception
	if errors.As(err, &native) {
		if native == nil {
			return nil, malformedFailure, 0
		}
		code = native.Code
	}
	return nil, err.Error(), code
}
