package bridge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reusee/callbridge/host"
)

// Target is the native side of a registered function or method.
type Target interface {
	Invoke(params Parameters) (any, error)
}

type TargetFunc func(params Parameters) (any, error)

var _ Target = TargetFunc(nil)

func (f TargetFunc) Invoke(params Parameters) (any, error) {
	return f(params)
}

// Arg describes one declared argument.
type Arg struct {
	Name        string
	Type        host.TypeHint
	ClassName   string
	AllowNull   bool
	ByReference bool
	Optional    bool
}

// ByVal declares a required argument passed by value.
func ByVal(name string, hint host.TypeHint) Arg {
	return Arg{
		Name: name,
		Type: hint,
	}
}

// OptVal declares an optional argument passed by value.
func OptVal(name string, hint host.TypeHint) Arg {
	return Arg{
		Name:     name,
		Type:     hint,
		Optional: true,
	}
}

// ByRef declares a required argument passed by reference.
func ByRef(name string, hint host.TypeHint) Arg {
	return Arg{
		Name:        name,
		Type:        hint,
		ByReference: true,
	}
}

// ObjectOf declares a required argument that must be an instance of className.
func ObjectOf(name string, className string) Arg {
	return Arg{
		Name:      name,
		Type:      host.TypeHintObject,
		ClassName: className,
	}
}

func (a Arg) Nullable() Arg {
	a.AllowNull = true
	return a
}

func (a Arg) info() host.ArgInfo {
	return host.ArgInfo{
		Name:            a.Name,
		ClassName:       a.ClassName,
		TypeHint:        a.Type,
		AllowNull:       a.AllowNull,
		PassByReference: a.ByReference,
		Optional:        a.Optional,
	}
}

// Callable describes a native function or method for registration.
// It is immutable after construction and never freed.
type Callable struct {
	name     string
	args     []Arg
	argInfo  []host.ArgInfo
	required int
	returns  host.TypeHint
	target   Target

	id    identity
	buf   []byte
	fname []byte
}

func NewCallable(name string, target Target, returns host.TypeHint, args ...Arg) (*Callable, error) {
	if name == "" {
		return nil, fmt.Errorf("callable name cannot be empty")
	}
	if strings.IndexByte(name, 0) >= 0 {
		return nil, fmt.Errorf("callable name %q contains NUL", name)
	}
	if target == nil {
		return nil, fmt.Errorf("callable %s has no target", name)
	}

	var required int
	optionalSeen := false
	infos := make([]host.ArgInfo, 0, len(args))
	for i, arg := range args {
		if arg.Name == "" {
			return nil, fmt.Errorf("%s(): argument %d has no name", name, i+1)
		}
		if arg.Optional {
			optionalSeen = true
		} else {
			if optionalSeen {
				return nil, fmt.Errorf("%s(): required argument %s follows an optional one", name, arg.Name)
			}
			required++
		}
		infos = append(infos, arg.info())
	}

	c := &Callable{
		name:     name,
		args:     slices.Clone(args),
		argInfo:  infos,
		required: required,
		returns:  returns,
		target:   target,
	}
	c.id = enroll(c)
	c.buf, c.fname = encodeName(c.id, name)
	return c, nil
}

// Invoke runs the target. Failures are returned as is; translating them for
// the host is the trampoline's job.
func (c *Callable) Invoke(params Parameters) (any, error) {
	return c.target.Invoke(params)
}

func (c *Callable) Name() string {
	return c.name
}

func (c *Callable) Args() []Arg {
	return slices.Clone(c.args)
}

// Required is the number of arguments a caller must pass.
func (c *Callable) Required() int {
	return c.required
}

func (c *Callable) Returns() host.TypeHint {
	return c.returns
}

// Signature renders the declaration, e.g. "add(scalar $a, scalar $b = ?): scalar".
func (c *Callable) Signature() string {
	var b strings.Builder
	b.WriteString(c.name)
	b.WriteByte('(')
	for i, arg := range c.args {
		if i > 0 {
			b.WriteString(", ")
		}
		if arg.AllowNull {
			b.WriteByte('?')
		}
		if arg.ClassName != "" {
			b.WriteString(arg.ClassName)
		} else {
			b.WriteString(arg.Type.String())
		}
		b.WriteByte(' ')
		if arg.ByReference {
			b.WriteByte('&')
		}
		b.WriteByte('$')
		b.WriteString(arg.Name)
		if arg.Optional {
			b.WriteString(" = ?")
		}
	}
	b.WriteByte(')')
	if c.returns != host.TypeHintNone {
		b.WriteString(": ")
		b.WriteString(c.returns.String())
	}
	return b.String()
}
