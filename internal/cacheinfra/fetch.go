package cacheinfra

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// ValidateFetchFn checks that fetchFn has the shape func(context.Context) (T, error).
func ValidateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}
	if reflect.ValueOf(fetchFn).IsNil() {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}
	if !contextType.AssignableTo(fnType.In(0)) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}

	return nil
}

// CallFetch validates and invokes fetchFn, returning its result as any.
// Generic fetch functions (cache.FetchFn[T]) are called through reflection;
// the common func(context.Context) (any, error) shape is called directly.
func CallFetch(ctx context.Context, fetchFn any) (any, error) {
	if err := ValidateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(&ctx).Elem()})

	var result any
	if rv := results[0]; rv.IsValid() && rv.CanInterface() {
		result = rv.Interface()
	}

	var err error
	if ev := results[1]; !ev.IsNil() {
		err = ev.Interface().(error)
	}

	return result, err
}
