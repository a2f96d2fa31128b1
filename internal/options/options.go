// Package options holds the constructor arguments handed to plugin
// factories. The core treats them as an opaque mapping; plugins decode them
// into their own typed structs with Decode.
package options

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Options maps option names to native Go values (strings, bools, numbers,
// []any, map[string]any).
type Options map[string]any

var (
	durationType = reflect.TypeOf(time.Duration(0))
	ctyValueType = reflect.TypeOf(cty.Value{})
)

// Merge returns a copy of o overlaid with the keys of other.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	maps.Copy(out, o)
	maps.Copy(out, other)
	return out
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o))
}

// Decode fills the `cty`-tagged fields of the struct pointed to by target.
// Options absent from o leave the field untouched, so callers set defaults
// before decoding. An option with no matching field is an error.
func (o Options) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("options: decode target must be a non-nil pointer to a struct, got %T", target)
	}
	sv := rv.Elem()
	st := sv.Type()

	fields := make(map[string]int, st.NumField())
	for i := range st.NumField() {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := strings.Split(f.Tag.Get("cty"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		fields[tag] = i
	}

	var unsupported []string
	for _, key := range o.Keys() {
		idx, ok := fields[key]
		if !ok {
			unsupported = append(unsupported, key)
			continue
		}
		if err := decodeField(o[key], sv.Field(idx)); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("unsupported option(s): %s", strings.Join(unsupported, ", "))
	}
	return nil
}

func decodeField(raw any, field reflect.Value) error {
	if raw == nil {
		return nil
	}

	switch {
	case field.Type() == durationType:
		d, err := toDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	case field.Type() == ctyValueType:
		val, err := ToCtyValue(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(val))
		return nil
	case field.Kind() == reflect.Interface:
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("cannot assign %T to %s", raw, field.Type())
		}
		field.Set(rv)
		return nil
	case field.Type() == reflect.TypeOf(map[string]any(nil)):
		if m, ok := raw.(map[string]any); ok {
			field.Set(reflect.ValueOf(maps.Clone(m)))
			return nil
		}
	}

	val, err := ToCtyValue(raw)
	if err != nil {
		return err
	}
	ty, err := gocty.ImpliedType(reflect.Zero(field.Type()).Interface())
	if err != nil {
		return fmt.Errorf("unsupported field type %s: %w", field.Type(), err)
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return fmt.Errorf("expected %s: %w", ty.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, field.Addr().Interface())
}

// toDuration accepts a duration string ("250ms") or a number of seconds.
func toDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	}

	val, err := ToCtyValue(raw)
	if err != nil {
		return 0, err
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("expected a duration string or a number of seconds: %w", err)
	}
	var seconds float64
	if err := gocty.FromCtyValue(num, &seconds); err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
