package models

import "encoding/json"

// Optional holds a value that may or may not have been provided by the caller.
// It is used in partial-update inputs so that an omitted field can be told apart
// from a field explicitly set to its zero value.
//
// Decoding JSON into an Optional marks it as set, including a literal null, which
// sets the zero value of T.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional that is set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// ApplyTo copies the value into dst when it is set.
func (o Optional[T]) ApplyTo(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}

// ValidationValue exposes the value to the validator: nil when unset, a pointer
// to the value otherwise, so that omitempty only skips unset fields.
func (o Optional[T]) ValidationValue() interface{} {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	var zero T
	o.Value = zero
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
