package format

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NumberAnnotation is the tag key served by the number factory. The first
// bare option selects the style (decimal, percent or integer, default
// decimal) and `fraction=N` fixes the number of fraction digits:
//
//	Ratio float64 `number:"percent,fraction=1"`
const NumberAnnotation = "number"

const (
	StyleDecimal = "decimal"
	StylePercent = "percent"
	StyleInteger = "integer"
)

type numberFactory struct{}

func NewNumberFormatterFactory() AnnotationFormatterFactory { return numberFactory{} }

func (numberFactory) AnnotationName() string { return NumberAnnotation }

func (numberFactory) FieldTypes() []reflect.Type {
	out := make([]reflect.Type, 0, len(intTypes)+len(uintTypes)+len(floatTypes))
	out = append(out, intTypes...)
	out = append(out, uintTypes...)
	return append(out, floatTypes...)
}

func (numberFactory) GetFormatter(a Annotation, fieldType reflect.Type) (Formatter, error) {
	f := &numberFormatter{typ: fieldType, style: StyleDecimal, fraction: -1}

	for _, opt := range a.Options() {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == StyleDecimal, opt == StylePercent, opt == StyleInteger:
			f.style = opt
		case strings.HasPrefix(opt, "fraction="):
			n, err := strconv.Atoi(strings.TrimPrefix(opt, "fraction="))
			if err != nil || n < 0 {
				return nil, errors.Errorf("invalid fraction digits '%s'", opt)
			}
			f.fraction = n
		case opt == "":
		default:
			return nil, errors.Errorf("unrecognized number option '%s'", opt)
		}
	}
	if f.style == StyleInteger {
		f.fraction = 0
	}

	return f, nil
}

// numberFormatter prints numbers with the grouping and decimal separators of
// the locale. Without a fixed fraction the locale's default precision applies,
// so printing may round.
type numberFormatter struct {
	typ      reflect.Type
	style    string
	fraction int
}

func (f *numberFormatter) Type() reflect.Type { return f.typ }

func (f *numberFormatter) Print(v interface{}, locale language.Tag) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != f.typ {
		return "", errors.Errorf("cannot print '%T' with the '%s' number formatter", v, f.typ)
	}

	var x interface{}
	switch {
	case isInteger(rv.Kind()) && f.style != StylePercent:
		if rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uintptr {
			x = rv.Uint()
		} else {
			x = rv.Int()
		}
	default:
		n := toFloat(rv)
		if f.style == StylePercent {
			n *= 100
		}
		x = n
	}

	var opts []number.Option
	if f.fraction >= 0 {
		opts = append(opts, number.MinFractionDigits(f.fraction), number.MaxFractionDigits(f.fraction))
	}

	out := message.NewPrinter(locale).Sprintf("%v", number.Decimal(x, opts...))
	if f.style == StylePercent {
		out += "%"
	}

	return out, nil
}

func (f *numberFormatter) Parse(text string, locale language.Tag) (interface{}, error) {
	sym := symbolsFor(locale)

	s := strings.TrimSpace(text)
	if f.style == StylePercent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if sym.group != "" {
		s = strings.Replace(s, sym.group, "", -1)
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	if sym.decimal != "." {
		s = strings.Replace(s, sym.decimal, ".", 1)
	}

	if isInteger(f.typ.Kind()) {
		return parseInteger(s, f.typ, f.style == StylePercent, text)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s' as %s number", text, locale)
	}
	if f.style == StylePercent {
		n /= 100
	}

	out := reflect.New(f.typ).Elem()
	if out.OverflowFloat(n) {
		return nil, errors.Errorf("'%s' overflows %s", text, f.typ)
	}
	out.SetFloat(n)

	return out.Interface(), nil
}

// parseInteger reads s, already stripped of locale symbols, without going
// through float64. A fraction is accepted only when every digit is zero.
// Percentages must divide evenly by 100.
func parseInteger(s string, t reflect.Type, percent bool, text string) (interface{}, error) {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		if strings.Trim(s[idx+1:], "0") != "" {
			return nil, errors.Errorf("'%s' is not a valid %s", text, t)
		}
		s = s[:idx]
	}

	out := reflect.New(t).Elem()
	if t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uintptr {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "'%s' is not a valid %s", text, t)
		}
		if percent {
			if n%100 != 0 {
				return nil, errors.Errorf("'%s' is not a valid %s", text, t)
			}
			n /= 100
		}
		if out.OverflowUint(n) {
			return nil, errors.Errorf("'%s' overflows %s", text, t)
		}
		out.SetUint(n)

		return out.Interface(), nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "'%s' is not a valid %s", text, t)
	}
	if percent {
		if n%100 != 0 {
			return nil, errors.Errorf("'%s' is not a valid %s", text, t)
		}
		n /= 100
	}
	if out.OverflowInt(n) {
		return nil, errors.Errorf("'%s' overflows %s", text, t)
	}
	out.SetInt(n)

	return out.Interface(), nil
}

type symbols struct {
	group   string
	decimal string
}

var symbolCache sync.Map

// symbolsFor reads the separators of a locale off a formatted sample, falling
// back to "," and "." for locales that do not print ASCII digits.
func symbolsFor(locale language.Tag) symbols {
	key := locale.String()
	if s, ok := symbolCache.Load(key); ok {
		return s.(symbols)
	}

	sym := symbols{group: ",", decimal: "."}
	sample := message.NewPrinter(locale).Sprintf("%v", number.Decimal(1234567.8, number.MinFractionDigits(1)))
	i1 := strings.IndexByte(sample, '1')
	i2 := strings.IndexByte(sample, '2')
	i7 := strings.IndexByte(sample, '7')
	i8 := strings.IndexByte(sample, '8')
	if i1 >= 0 && i2 > i1 && i7 > i2 && i8 > i7 {
		sym.group = sample[i1+1 : i2]
		sym.decimal = sample[i7+1 : i8]
	}

	symbolCache.Store(key, sym)

	return sym
}
