package format

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

var (
	stringType   = reflect.TypeOf("")
	boolType     = reflect.TypeOf(false)
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})

	intTypes = []reflect.Type{
		reflect.TypeOf(int(0)),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
	}
	uintTypes = []reflect.Type{
		reflect.TypeOf(uint(0)),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(uint64(0)),
	}
	floatTypes = []reflect.Type{
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
	}
)

// NewDefaultRegistry returns a registry holding DefaultFormatters and the
// datetime and number annotation factories.
func NewDefaultRegistry() Registry {
	r := NewRegistry()

	catcher := grip.NewBasicCatcher()
	for _, f := range DefaultFormatters() {
		catcher.Add(r.AddFormatter(f))
	}
	catcher.Add(r.AddAnnotationFormatterFactory(NewDateTimeFormatterFactory()))
	catcher.Add(r.AddAnnotationFormatterFactory(NewNumberFormatterFactory()))
	if err := catcher.Resolve(); err != nil {
		panic(errors.Wrap(err, "registering default formatters"))
	}

	return r
}

// DefaultFormatters covers strings, booleans, every integer and float width,
// time.Duration and time.Time (RFC 3339). None of them are locale sensitive.
func DefaultFormatters() []Formatter {
	out := []Formatter{
		New(stringType, printString, parseString),
		New(boolType, printBool, parseBool),
		New(durationType, printDuration, parseDuration),
		New(timeType, printTime, parseTime),
	}
	for _, t := range intTypes {
		out = append(out, intFormatter(t))
	}
	for _, t := range uintTypes {
		out = append(out, uintFormatter(t))
	}
	for _, t := range floatTypes {
		out = append(out, floatFormatter(t))
	}

	return out
}

func printString(v interface{}, _ language.Tag) (string, error) { return v.(string), nil }

func parseString(text string, _ language.Tag) (interface{}, error) { return text, nil }

func printBool(v interface{}, _ language.Tag) (string, error) {
	return strconv.FormatBool(v.(bool)), nil
}

func parseBool(text string, _ language.Tag) (interface{}, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(text))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s' as bool", text)
	}

	return b, nil
}

func printDuration(v interface{}, _ language.Tag) (string, error) {
	return v.(time.Duration).String(), nil
}

func parseDuration(text string, _ language.Tag) (interface{}, error) {
	d, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s' as duration", text)
	}

	return d, nil
}

func printTime(v interface{}, _ language.Tag) (string, error) {
	return v.(time.Time).Format(time.RFC3339Nano), nil
}

func parseTime(text string, _ language.Tag) (interface{}, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s' as time", text)
	}

	return t, nil
}

func intFormatter(t reflect.Type) Formatter {
	return New(t,
		func(v interface{}, _ language.Tag) (string, error) {
			return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
		},
		func(text string, _ language.Tag) (interface{}, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(text), 10, t.Bits())
			if err != nil {
				return nil, errors.Wrapf(err, "parsing '%s' as %s", text, t)
			}

			return reflect.ValueOf(n).Convert(t).Interface(), nil
		})
}

func uintFormatter(t reflect.Type) Formatter {
	return New(t,
		func(v interface{}, _ language.Tag) (string, error) {
			return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
		},
		func(text string, _ language.Tag) (interface{}, error) {
			n, err := strconv.ParseUint(strings.TrimSpace(text), 10, t.Bits())
			if err != nil {
				return nil, errors.Wrapf(err, "parsing '%s' as %s", text, t)
			}

			return reflect.ValueOf(n).Convert(t).Interface(), nil
		})
}

func floatFormatter(t reflect.Type) Formatter {
	return New(t,
		func(v interface{}, _ language.Tag) (string, error) {
			return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'g', -1, t.Bits()), nil
		},
		func(text string, _ language.Tag) (interface{}, error) {
			n, err := strconv.ParseFloat(strings.TrimSpace(text), t.Bits())
			if err != nil {
				return nil, errors.Wrapf(err, "parsing '%s' as %s", text, t)
			}

			return reflect.ValueOf(n).Convert(t).Interface(), nil
		})
}
