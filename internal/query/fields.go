// Package query implements list filtering, sorting and pagination over
// in-memory entity slices. Each entity declares its filterable fields once in a
// Fields table; filters are built from flat query parameters such as
// "name__icontains=foo" or "ram__gte=2048".
package query

import (
	"time"
)

// Kind determines which operators a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Field is one filterable and sortable attribute of T. Get returns a string,
// float64, bool or time.Time according to Kind, or nil when the value is unset.
type Field[T any] struct {
	Name string
	Kind Kind
	Get  func(T) any
}

// Fields is the field table of an entity.
type Fields[T any] []Field[T]

// Lookup returns the field with the given name.
func (fs Fields[T]) Lookup(name string) (Field[T], bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

func String[T any](name string, get func(T) string) Field[T] {
	return Field[T]{Name: name, Kind: KindString, Get: func(v T) any { return get(v) }}
}

func StringPtr[T any](name string, get func(T) *string) Field[T] {
	return Field[T]{Name: name, Kind: KindString, Get: func(v T) any {
		if p := get(v); p != nil {
			return *p
		}
		return nil
	}}
}

func Int[T any](name string, get func(T) int) Field[T] {
	return Field[T]{Name: name, Kind: KindNumber, Get: func(v T) any { return float64(get(v)) }}
}

func IntPtr[T any](name string, get func(T) *int) Field[T] {
	return Field[T]{Name: name, Kind: KindNumber, Get: func(v T) any {
		if p := get(v); p != nil {
			return float64(*p)
		}
		return nil
	}}
}

func Float[T any](name string, get func(T) float64) Field[T] {
	return Field[T]{Name: name, Kind: KindNumber, Get: func(v T) any { return get(v) }}
}

func FloatPtr[T any](name string, get func(T) *float64) Field[T] {
	return Field[T]{Name: name, Kind: KindNumber, Get: func(v T) any {
		if p := get(v); p != nil {
			return *p
		}
		return nil
	}}
}

func Bool[T any](name string, get func(T) bool) Field[T] {
	return Field[T]{Name: name, Kind: KindBool, Get: func(v T) any { return get(v) }}
}

func Date[T any](name string, get func(T) time.Time) Field[T] {
	return Field[T]{Name: name, Kind: KindDate, Get: func(v T) any {
		t := get(v)
		if t.IsZero() {
			return nil
		}
		return t
	}}
}
