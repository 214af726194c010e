package host

import (
	"bytes"
	"strings"
)

// Handler is the only calling convention the runtime knows for native code.
// fname is the Name of the FunctionEntry the handler was registered with,
// handed back unmodified. ret is pre-allocated and null. this is nil for
// functions and static methods. argv[:argc] are the call arguments.
type Handler func(rt *Runtime, fname []byte, ret *Zval, this *Object, argv []*Zval, argc int)

type Flags uint32

const (
	FlagPublic Flags = 1 << iota
	FlagProtected
	FlagPrivate
	FlagStatic
	FlagAbstract
	FlagFinal
)

const visibilityMask = FlagPublic | FlagProtected | FlagPrivate

func (f Flags) Visibility() Flags {
	if v := f & visibilityMask; v != 0 {
		return v
	}
	return FlagPublic
}

func (f Flags) String() string {
	var parts []string
	switch f.Visibility() {
	case FlagPublic:
		parts = append(parts, "public")
	case FlagProtected:
		parts = append(parts, "protected")
	case FlagPrivate:
		parts = append(parts, "private")
	}
	if f&FlagStatic != 0 {
		parts = append(parts, "static")
	}
	if f&FlagAbstract != 0 {
		parts = append(parts, "abstract")
	}
	if f&FlagFinal != 0 {
		parts = append(parts, "final")
	}
	return strings.Join(parts, " ")
}

type TypeHint uint8

const (
	TypeHintNone TypeHint = iota
	TypeHintScalar
	TypeHintArray
	TypeHintObject
	TypeHintCallable
)

func (h TypeHint) String() string {
	switch h {
	case TypeHintNone:
		return "mixed"
	case TypeHintScalar:
		return "scalar"
	case TypeHintArray:
		return "array"
	case TypeHintObject:
		return "object"
	case TypeHintCallable:
		return "callable"
	}
	return "unknown"
}

// Accepts reports whether a value of type t satisfies the hint.
// Scalar and None hints are not enforced by the runtime.
func (h TypeHint) Accepts(t Type, allowNull bool) bool {
	if t == TypeNull && allowNull {
		return true
	}
	switch h {
	case TypeHintArray:
		return t == TypeArray
	case TypeHintObject:
		return t == TypeObject
	case TypeHintCallable:
		return t == TypeCallable
	}
	return true
}

type ArgInfo struct {
	Name            string
	ClassName       string
	TypeHint        TypeHint
	AllowNull       bool
	PassByReference bool
	Optional        bool
}

// FunctionInfo carries signature metadata. Runtimes built with
// Features.SignatureInfo read it from FunctionEntry.Info.
type FunctionInfo struct {
	Name                []byte
	NameLen             int
	ClassName           string // empty for plain functions
	RequiredNumArgs     uint32
	TypeHint            TypeHint
	ReturnReference     bool
	PassRestByReference bool
}

// FunctionEntry is one row of a registration table.
// The runtime reads Name as a NUL-terminated string and never copies or
// reslices it: the exact slice is handed back to Handler on every call.
type FunctionEntry struct {
	Name    []byte
	Handler Handler
	ArgInfo []ArgInfo
	NumArgs uint32
	Flags   Flags
	Info    *FunctionInfo
}

// Features describes what a runtime exposes to extensions.
type Features struct {
	// SignatureInfo enables FunctionEntry.Info: required argument counts,
	// return type hints and argument type checks.
	SignatureInfo bool
}

// CString reads b as a NUL-terminated string.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
