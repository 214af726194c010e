package configs

import (
	"errors"
)

// First decodes the value at path from the first file defining it, or
// returns the zero value when none does.
func First[T any](loader Loader, path string) (value T) {
	err := loader.AssignFirst(path, &value)
	if err != nil && !errors.Is(err, ErrValueNotFound) {
		panic(err)
	}
	return
}
