package format

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// ErrNotCoercible is returned when values cannot be coerced between the type
// a formatter is indexed by and the type it declares.
var ErrNotCoercible = errors.New("types are not coercible")

// CanCoerce reports whether values of type from can be coerced to type to.
// Integer and string kinds are never coerced into each other, since the Go
// conversion between them produces runes rather than digits.
func CanCoerce(from, to reflect.Type) bool {
	switch {
	case from == nil || to == nil:
		return false
	case from == to:
		return true
	case to.Kind() == reflect.Interface:
		return from.Implements(to)
	case from.Kind() == reflect.Ptr && from.Elem() == to:
		return true
	case to.Kind() == reflect.Ptr && to.Elem() == from:
		return true
	case isInteger(from.Kind()) && to.Kind() == reflect.String,
		from.Kind() == reflect.String && isInteger(to.Kind()):
		return false
	}

	return from.ConvertibleTo(to)
}

// Coerce converts v to the type to, following the rules of CanCoerce. An
// invalid value coerces to the zero value of to.
func Coerce(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(to), nil
	}

	from := v.Type()
	if !CanCoerce(from, to) {
		return reflect.Value{}, errors.Wrapf(ErrNotCoercible, "'%s' to '%s'", from, to)
	}

	switch {
	case from == to:
		return v, nil
	case from.Kind() == reflect.Ptr && from.Elem() == to:
		if v.IsNil() {
			return reflect.Value{}, errors.Errorf("cannot coerce nil '%s' to '%s'", from, to)
		}
		return v.Elem(), nil
	case to.Kind() == reflect.Ptr && to.Elem() == from:
		p := reflect.New(from)
		p.Elem().Set(v)
		return p, nil
	}

	return v.Convert(to), nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

// coercingFormatter serves typ through a formatter declared for another type.
type coercingFormatter struct {
	typ    reflect.Type
	target Formatter
}

func (f *coercingFormatter) Type() reflect.Type { return f.typ }

func (f *coercingFormatter) Print(v interface{}, locale language.Tag) (string, error) {
	cv, err := Coerce(reflect.ValueOf(v), f.target.Type())
	if err != nil {
		return "", errors.Wrap(err, "coercing value to print")
	}

	return f.target.Print(cv.Interface(), locale)
}

func (f *coercingFormatter) Parse(text string, locale language.Tag) (interface{}, error) {
	out, err := f.target.Parse(text, locale)
	if err != nil {
		return nil, err
	}

	cv, err := Coerce(reflect.ValueOf(out), f.typ)
	if err != nil {
		return nil, errors.Wrap(err, "coercing parsed value")
	}

	return cv.Interface(), nil
}

// pointerFormatter prints nil pointers as the empty string and parses the
// empty string as a nil pointer.
type pointerFormatter struct {
	typ  reflect.Type
	elem Formatter
}

func (f *pointerFormatter) Type() reflect.Type { return f.typ }

func (f *pointerFormatter) Print(v interface{}, locale language.Tag) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", nil
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}

	return f.elem.Print(rv.Interface(), locale)
}

func (f *pointerFormatter) Parse(text string, locale language.Tag) (interface{}, error) {
	if text == "" {
		return reflect.Zero(f.typ).Interface(), nil
	}

	out, err := f.elem.Parse(text, locale)
	if err != nil {
		return nil, err
	}

	ev, err := Coerce(reflect.ValueOf(out), f.typ.Elem())
	if err != nil {
		return nil, errors.Wrap(err, "coercing parsed value")
	}

	p := reflect.New(f.typ.Elem())
	p.Elem().Set(ev)

	return p.Interface(), nil
}

const collectionSeparator = ","

// collectionFormatter joins the elements of slices and arrays with commas.
// Elements are not escaped.
type collectionFormatter struct {
	typ  reflect.Type
	elem Formatter
}

func (f *collectionFormatter) Type() reflect.Type { return f.typ }

func (f *collectionFormatter) Print(v interface{}, locale language.Tag) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", errors.Errorf("cannot print '%T' as a collection", v)
	}

	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, err := f.elem.Print(rv.Index(i).Interface(), locale)
		if err != nil {
			return "", errors.Wrapf(err, "printing element %d", i)
		}
		parts[i] = s
	}

	return strings.Join(parts, collectionSeparator), nil
}

func (f *collectionFormatter) Parse(text string, locale language.Tag) (interface{}, error) {
	var parts []string
	if strings.TrimSpace(text) != "" {
		parts = strings.Split(text, collectionSeparator)
	}

	var out reflect.Value
	switch f.typ.Kind() {
	case reflect.Array:
		if len(parts) > f.typ.Len() {
			return nil, errors.Errorf("%d elements do not fit in '%s'", len(parts), f.typ)
		}
		out = reflect.New(f.typ).Elem()
	default:
		out = reflect.MakeSlice(f.typ, len(parts), len(parts))
	}

	for i, part := range parts {
		ev, err := f.elem.Parse(strings.TrimSpace(part), locale)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing element %d", i)
		}

		cv, err := Coerce(reflect.ValueOf(ev), f.typ.Elem())
		if err != nil {
			return nil, errors.Wrapf(err, "coercing element %d", i)
		}
		out.Index(i).Set(cv)
	}

	return out.Interface(), nil
}
