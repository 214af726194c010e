package stdext

import (
	"math"
	"strings"

	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/host"
	"golang.org/x/net/idna"
)

type function struct {
	name    string
	target  bridge.TargetFunc
	returns host.TypeHint
	args    []bridge.Arg
}

var functions = []function{
	{
		name:    "add",
		target:  add,
		returns: host.TypeHintScalar,
		args: []bridge.Arg{
			bridge.ByVal("a", host.TypeHintScalar),
			bridge.ByVal("b", host.TypeHintScalar),
		},
	},
	{
		name:    "intdiv",
		target:  intdiv,
		returns: host.TypeHintScalar,
		args: []bridge.Arg{
			bridge.ByVal("dividend", host.TypeHintScalar),
			bridge.ByVal("divisor", host.TypeHintScalar),
		},
	},
	{
		name:    "str_upper",
		target:  strUpper,
		returns: host.TypeHintScalar,
		args: []bridge.Arg{
			bridge.ByVal("str", host.TypeHintScalar),
		},
	},
	{
		name:    "idn_to_ascii",
		target:  idnToASCII,
		returns: host.TypeHintScalar,
		args: []bridge.Arg{
			bridge.ByVal("domain", host.TypeHintScalar),
		},
	},
	{
		name:    "array_sum",
		target:  arraySum,
		returns: host.TypeHintScalar,
		args: []bridge.Arg{
			bridge.ByVal("array", host.TypeHintArray),
		},
	},
	{
		name:    "array_map",
		target:  arrayMap,
		returns: host.TypeHintArray,
		args: []bridge.Arg{
			bridge.ByVal("callback", host.TypeHintCallable),
			bridge.ByVal("array", host.TypeHintArray),
		},
	},
	{
		name:   "call_user_func",
		target: callUserFunc,
		args: []bridge.Arg{
			bridge.ByVal("callback", host.TypeHintCallable),
		},
	},
}

func isDouble(p bridge.Parameters, i int) bool {
	z, err := p.Zval(i)
	return err == nil && z.Type() == host.TypeDouble
}

func add(p bridge.Parameters) (any, error) {
	if isDouble(p, 0) || isDouble(p, 1) {
		a, err := p.Float(0)
		if err != nil {
			return nil, err
		}
		b, err := p.Float(1)
		if err != nil {
			return nil, err
		}
		return a + b, nil
	}
	a, err := p.Int(0)
	if err != nil {
		return nil, err
	}
	b, err := p.Int(1)
	if err != nil {
		return nil, err
	}
	sum := a + b
	if (sum > a) != (b > 0) {
		// overflow
		return float64(a) + float64(b), nil
	}
	return sum, nil
}

func intdiv(p bridge.Parameters) (any, error) {
	a, err := p.Int(0)
	if err != nil {
		return nil, err
	}
	b, err := p.Int(1)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, bridge.Errorf("division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return nil, bridge.Errorf("division of %d by -1 is not an integer", a)
	}
	return a / b, nil
}

func strUpper(p bridge.Parameters) (any, error) {
	s, err := p.String(0)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func idnToASCII(p bridge.Parameters) (any, error) {
	domain, err := p.String(0)
	if err != nil {
		return nil, err
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return nil, err
	}
	return ascii, nil
}

func arraySum(p bridge.Parameters) (any, error) {
	arr, err := p.Array(0)
	if err != nil {
		return nil, err
	}
	var ints int64
	var floats float64
	isFloat := false
	for _, v := range arr.All() {
		switch v.Type() {
		case host.TypeLong:
			n, _ := v.Long()
			if sum := ints + n; (sum > ints) == (n > 0) {
				ints = sum
			} else {
				// overflow
				floats += float64(n)
				isFloat = true
			}
		case host.TypeDouble:
			f, _ := v.Double()
			floats += f
			isFloat = true
		case host.TypeBool:
			if b, _ := v.Bool(); b && ints < math.MaxInt64 {
				ints++
			} else if b {
				floats++
				isFloat = true
			}
		case host.TypeNull:
		default:
			return nil, bridge.Errorf("array_sum(): unsupported operand type %s", v.Type())
		}
	}
	if isFloat {
		return floats + float64(ints), nil
	}
	return ints, nil
}

func arrayMap(p bridge.Parameters) (any, error) {
	fn, err := p.Callable(0)
	if err != nil {
		return nil, err
	}
	arr, err := p.Array(1)
	if err != nil {
		return nil, err
	}
	ret := host.NewArray()
	for key, v := range arr.All() {
		mapped, err := p.Call(fn, v)
		if err != nil {
			return nil, err
		}
		if err := ret.Set(key, mapped); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func callUserFunc(p bridge.Parameters) (any, error) {
	fn, err := p.Callable(0)
	if err != nil {
		return nil, err
	}
	var args []any
	for i := 1; i < p.Len(); i++ {
		args = append(args, p.Value(i))
	}
	return p.Call(fn, args...)
}
