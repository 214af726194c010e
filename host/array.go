package host

import (
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Key is an array key, either int64 or string.
type Key = any

// Array is an ordered map, the only compound container of the host.
type Array struct {
	keys    []Key
	values  map[Key]*Zval
	nextIdx int64
}

func NewArray() *Array {
	return &Array{
		values: make(map[Key]*Zval),
	}
}

func (a *Array) Len() int {
	return len(a.keys)
}

func (a *Array) Append(v any) error {
	return a.Set(a.nextIdx, v)
}

func (a *Array) Set(key Key, v any) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	z, err := ToZval(v)
	if err != nil {
		return err
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = z
	if i, ok := key.(int64); ok && i >= a.nextIdx {
		a.nextIdx = i + 1
	}
	return nil
}

func (a *Array) Get(key Key) (*Zval, bool) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false
	}
	z, ok := a.values[key]
	return z, ok
}

// All iterates entries in insertion order.
func (a *Array) All() iter.Seq2[Key, *Zval] {
	return func(yield func(Key, *Zval) bool) {
		for _, key := range a.keys {
			if !yield(key, a.values[key]) {
				return
			}
		}
	}
}

func (a *Array) Keys() []Key {
	return slices.Clone(a.keys)
}

// IsList reports whether keys are 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, key := range a.keys {
		if k, ok := key.(int64); !ok || k != int64(i) {
			return false
		}
	}
	return true
}

func normalizeKey(key Key) (Key, error) {
	switch k := key.(type) {
	case int64:
		return k, nil
	case int:
		return int64(k), nil
	case int32:
		return int64(k), nil
	case string:
		return k, nil
	}
	return nil, fmt.Errorf("illegal array key type: %T", key)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
