package format

import (
	"encoding"
	"reflect"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// PrintFunc renders a value known to be of the formatter's type.
type PrintFunc func(v interface{}, locale language.Tag) (string, error)

// ParseFunc returns a value of the formatter's type read from text.
type ParseFunc func(text string, locale language.Tag) (interface{}, error)

// New returns a Formatter for t built from a pair of functions. Print rejects
// values that are not of type t, or do not implement t when t is an interface,
// before calling print.
func New(t reflect.Type, print PrintFunc, parse ParseFunc) Formatter {
	return &funcFormatter{typ: t, print: print, parse: parse}
}

type funcFormatter struct {
	typ   reflect.Type
	print PrintFunc
	parse ParseFunc
}

func (f *funcFormatter) Type() reflect.Type { return f.typ }

func (f *funcFormatter) Print(v interface{}, locale language.Tag) (string, error) {
	if v == nil || !accepts(f.typ, reflect.TypeOf(v)) {
		return "", errors.Errorf("cannot print '%T' with the '%s' formatter", v, f.typ)
	}

	return f.print(v, locale)
}

func accepts(declared, t reflect.Type) bool {
	if declared.Kind() == reflect.Interface {
		return t.Implements(declared)
	}

	return t == declared
}

func (f *funcFormatter) Parse(text string, locale language.Tag) (interface{}, error) {
	return f.parse(text, locale)
}

// textFormatter serves types implementing encoding.TextMarshaler and
// encoding.TextUnmarshaler, with either receiver.
type textFormatter struct {
	typ reflect.Type
}

func (f *textFormatter) Type() reflect.Type { return f.typ }

func (f *textFormatter) Print(v interface{}, _ language.Tag) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != f.typ {
		return "", errors.Errorf("cannot print '%T' with the '%s' formatter", v, f.typ)
	}

	m, ok := v.(encoding.TextMarshaler)
	if !ok {
		p := reflect.New(f.typ)
		p.Elem().Set(rv)
		m = p.Interface().(encoding.TextMarshaler)
	}

	out, err := m.MarshalText()
	if err != nil {
		return "", errors.Wrapf(err, "marshaling '%s'", f.typ)
	}

	return string(out), nil
}

func (f *textFormatter) Parse(text string, _ language.Tag) (interface{}, error) {
	p := reflect.New(f.typ)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling '%s'", f.typ)
	}

	return p.Elem().Interface(), nil
}
