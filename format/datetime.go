package format

import (
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// DateTimeAnnotation is the tag key served by the datetime factory. The tag
// value is either a Go reference layout, such as `datetime:"02 Jan 2006"`, or
// one of the ISO shorthands `iso=date`, `iso=time` and `iso=date_time`. An
// empty value means RFC 3339.
const DateTimeAnnotation = "datetime"

// ISO shorthands accepted as `iso=` values.
const (
	ISODate     = "date"
	ISOTime     = "time"
	ISODateTime = "date_time"
)

var isoLayouts = map[string]string{
	ISODate:     "2006-01-02",
	ISOTime:     "15:04:05.000Z07:00",
	ISODateTime: "2006-01-02T15:04:05.000Z07:00",
}

type dateTimeFactory struct{}

func NewDateTimeFormatterFactory() AnnotationFormatterFactory { return dateTimeFactory{} }

func (dateTimeFactory) AnnotationName() string { return DateTimeAnnotation }

func (dateTimeFactory) FieldTypes() []reflect.Type { return []reflect.Type{timeType} }

func (dateTimeFactory) GetFormatter(a Annotation, fieldType reflect.Type) (Formatter, error) {
	if fieldType != timeType {
		return nil, errors.Errorf("datetime formatting does not support '%s'", fieldType)
	}

	layout, err := dateTimeLayout(a.Value)
	if err != nil {
		return nil, err
	}

	return New(timeType,
		func(v interface{}, _ language.Tag) (string, error) {
			return v.(time.Time).Format(layout), nil
		},
		func(text string, _ language.Tag) (interface{}, error) {
			t, err := time.Parse(layout, strings.TrimSpace(text))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing '%s' with layout '%s'", text, layout)
			}

			return t, nil
		}), nil
}

func dateTimeLayout(value string) (string, error) {
	switch {
	case value == "":
		return time.RFC3339Nano, nil
	case strings.HasPrefix(value, "iso="):
		iso := strings.TrimPrefix(value, "iso=")
		layout, ok := isoLayouts[iso]
		if !ok {
			return "", errors.Errorf("unrecognized ISO format '%s'", iso)
		}
		return layout, nil
	default:
		return value, nil
	}
}
