package validator

import (
	"fmt"
	"reflect"
)

// Validate returns an error naming component when any dependency is nil or
// the zero value of its type.
func Validate(name string, deps ...any) error {
	for i, dep := range deps {
		if dep == nil {
			return fmt.Errorf("missing required deps for component: %s (argument %d)", name, i)
		}

		v := reflect.ValueOf(dep)
		switch v.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			if v.IsNil() {
				return fmt.Errorf("missing required deps for component: %s (argument %d)", name, i)
			}
		default:
			if v.IsZero() {
				return fmt.Errorf("missing required deps for component: %s (argument %d)", name, i)
			}
		}
	}

	return nil
}
