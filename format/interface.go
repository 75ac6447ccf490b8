package format

import (
	"reflect"

	"golang.org/x/text/language"
)

// Printer renders a value as text for a locale.
type Printer interface {
	Print(v interface{}, locale language.Tag) (string, error)
}

// Parser reads a value back from text for a locale.
type Parser interface {
	Parse(text string, locale language.Tag) (interface{}, error)
}

// Formatter converts values of a single type to and from their string
// representation. Type reports that type; Print accepts values of it and Parse
// returns values of it.
type Formatter interface {
	Printer
	Parser
	Type() reflect.Type
}

// AnnotationFormatterFactory produces formatters for struct fields carrying
// the tag key returned by AnnotationName.
type AnnotationFormatterFactory interface {
	AnnotationName() string
	// FieldTypes lists the field types the factory can serve. Pointers to
	// these types are served through the registry's pointer handling.
	FieldTypes() []reflect.Type
	GetFormatter(a Annotation, fieldType reflect.Type) (Formatter, error)
}

// Registry is a shared registry of Formatters.
type Registry interface {
	// AddFormatterByType adds a Formatter indexed by t. Use it when t differs
	// from the formatter's own type: lookups of t return a decorator that
	// coerces values of t to f.Type() before printing, and coerces parsed
	// values back to t.
	AddFormatterByType(t reflect.Type, f Formatter) error

	// AddFormatter adds a Formatter indexed by f.Type().
	AddFormatter(f Formatter) error

	// AddFormatterByAnnotation adds a Formatter used for struct fields
	// tagged with the given annotation name.
	AddFormatterByAnnotation(name string, f Formatter) error

	// AddAnnotationFormatterFactory adds a factory returning the Formatter
	// for fields tagged with factory.AnnotationName().
	AddAnnotationFormatterFactory(factory AnnotationFormatterFactory) error

	// GetFormatter returns the Formatter for the descriptor, or false if no
	// suitable one is registered.
	GetFormatter(d TypeDescriptor) (Formatter, bool)

	// Resolve is GetFormatter reporting why resolution failed. The error
	// satisfies IsNotFound when nothing is registered for d.
	Resolve(d TypeDescriptor) (Formatter, error)
}
