package rules

import (
	"github.com/spf13/cast"
)

// Has reports whether any of keys is set to a non-null value.
func (d Definition) Has(keys ...string) bool {
	_, ok := d.Value(keys...)
	return ok
}

// Value returns the first non-null parameter among keys. Later keys act as
// aliases for earlier ones.
func (d Definition) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := d.Params[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns a parameter as a string, or "" when unset.
func (d Definition) String(keys ...string) string {
	v, ok := d.Value(keys...)
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

// Float returns a numeric parameter. ok is false when the parameter is
// unset or not a number.
func (d Definition) Float(keys ...string) (float64, bool) {
	v, ok := d.Value(keys...)
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatOr returns a numeric parameter or def when unset or invalid.
func (d Definition) FloatOr(def float64, keys ...string) float64 {
	if f, ok := d.Float(keys...); ok {
		return f
	}
	return def
}

// Bool returns a boolean parameter or def when unset or invalid.
func (d Definition) Bool(def bool, keys ...string) bool {
	v, ok := d.Value(keys...)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// Strings returns a list parameter with each element rendered as a string.
// A scalar becomes a one-element list.
func (d Definition) Strings(keys ...string) []string {
	v, ok := d.Value(keys...)
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString {
		return []string{s}
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return []string{cast.ToString(v)}
	}
	return out
}
