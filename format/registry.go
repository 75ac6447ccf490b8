package format

import (
	"encoding"
	"reflect"
	"sync"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ErrNotFound is the cause of Resolve errors when no formatter is registered
// for a descriptor.
var ErrNotFound = errors.New("no suitable formatter registered")

// IsNotFound reports whether err means no formatter was registered, as
// opposed to a misconfigured annotation.
func IsNotFound(err error) bool { return errors.Cause(err) == ErrNotFound }

var globalRegistry = NewDefaultRegistry()

// GetGlobalRegistry returns the process-wide registry, preloaded with the
// default formatters and factories.
func GetGlobalRegistry() Registry { return globalRegistry }

type formatterRegistry struct {
	mu           sync.RWMutex
	byType       map[reflect.Type]Formatter
	byAnnotation map[string]Formatter
	factories    map[string]AnnotationFormatterFactory
	interfaces   []reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return &formatterRegistry{
		byType:       map[reflect.Type]Formatter{},
		byAnnotation: map[string]Formatter{},
		factories:    map[string]AnnotationFormatterFactory{},
	}
}

func validateFormatter(f Formatter) error {
	if f == nil {
		return errors.New("must specify a formatter")
	}
	if f.Type() == nil {
		return errors.New("formatter must declare its type")
	}

	return nil
}

func (r *formatterRegistry) AddFormatterByType(t reflect.Type, f Formatter) error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(t == nil, "must specify a type")
	catcher.Add(validateFormatter(f))
	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	if t == f.Type() {
		r.putType(t, f)
		return nil
	}

	if !CanCoerce(t, f.Type()) || !CanCoerce(f.Type(), t) {
		return errors.Wrapf(ErrNotCoercible, "cannot index formatter for '%s' by '%s'", f.Type(), t)
	}

	r.putType(t, &coercingFormatter{typ: t, target: f})

	return nil
}

func (r *formatterRegistry) AddFormatter(f Formatter) error {
	if err := validateFormatter(f); err != nil {
		return err
	}

	r.putType(f.Type(), f)

	return nil
}

func (r *formatterRegistry) AddFormatterByAnnotation(name string, f Formatter) error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(name == "", "must specify an annotation name")
	catcher.Add(validateFormatter(f))
	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAnnotation[name]; ok {
		grip.Debug(message.Fields{
			"message":    "replacing annotation formatter",
			"annotation": name,
			"type":       f.Type().String(),
		})
	}
	r.byAnnotation[name] = f

	return nil
}

func (r *formatterRegistry) AddAnnotationFormatterFactory(factory AnnotationFormatterFactory) error {
	if factory == nil {
		return errors.New("must specify a factory")
	}

	name := factory.AnnotationName()
	if name == "" {
		return errors.New("factory must declare an annotation name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		grip.Debug(message.Fields{
			"message":    "replacing annotation formatter factory",
			"annotation": name,
		})
	}
	r.factories[name] = factory

	return nil
}

func (r *formatterRegistry) putType(t reflect.Type, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byType[t]; ok {
		grip.Debug(message.Fields{
			"message": "replacing formatter",
			"type":    t.String(),
		})
	} else if t.Kind() == reflect.Interface {
		r.interfaces = append(r.interfaces, t)
	}
	r.byType[t] = f
}

func (r *formatterRegistry) GetFormatter(d TypeDescriptor) (Formatter, bool) {
	f, err := r.Resolve(d)
	if err != nil {
		if !IsNotFound(err) {
			grip.Warning(message.Fields{
				"message":    "formatter resolution failed",
				"descriptor": d.String(),
				"error":      err.Error(),
			})
		}
		return nil, false
	}

	return f, true
}

func (r *formatterRegistry) Resolve(d TypeDescriptor) (Formatter, error) {
	if d.Type == nil {
		return nil, errors.New("type descriptor has no type")
	}

	for _, a := range d.Annotations {
		f, err := r.forAnnotation(a, d.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving annotation '%s' on '%s'", a.Name, d)
		}
		if f != nil {
			return f, nil
		}
	}

	if f := r.forType(d.Type, map[reflect.Type]bool{}); f != nil {
		return f, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "for '%s'", d)
}

func (r *formatterRegistry) forAnnotation(a Annotation, t reflect.Type) (Formatter, error) {
	r.mu.RLock()
	f, hasFormatter := r.byAnnotation[a.Name]
	factory, hasFactory := r.factories[a.Name]
	r.mu.RUnlock()

	if hasFormatter {
		return adaptTo(f, t)
	}
	if !hasFactory {
		return nil, nil
	}

	if servesType(factory, t) {
		return fromFactory(factory, a, t)
	}
	if t.Kind() == reflect.Ptr && servesType(factory, t.Elem()) {
		elem, err := fromFactory(factory, a, t.Elem())
		if err != nil {
			return nil, err
		}
		return &pointerFormatter{typ: t, elem: elem}, nil
	}

	return nil, nil
}

func servesType(factory AnnotationFormatterFactory, t reflect.Type) bool {
	for _, ft := range factory.FieldTypes() {
		if ft == t {
			return true
		}
	}

	return false
}

func fromFactory(factory AnnotationFormatterFactory, a Annotation, t reflect.Type) (Formatter, error) {
	f, err := factory.GetFormatter(a, t)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.Errorf("factory for '%s' returned no formatter for '%s'", a.Name, t)
	}

	return f, nil
}

// adaptTo serves t with a formatter declared for another type, if it can.
func adaptTo(f Formatter, t reflect.Type) (Formatter, error) {
	ft := f.Type()
	switch {
	case ft == t:
		return f, nil
	case t.Kind() == reflect.Ptr && ft == t.Elem():
		return &pointerFormatter{typ: t, elem: f}, nil
	case CanCoerce(t, ft) && CanCoerce(ft, t):
		return &coercingFormatter{typ: t, target: f}, nil
	}

	return nil, errors.Wrapf(ErrNotCoercible, "formatter for '%s' cannot serve '%s'", ft, t)
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// forType resolves t without annotations. Types already being resolved
// further up, such as the element of `type list []list`, are absent.
func (r *formatterRegistry) forType(t reflect.Type, resolving map[reflect.Type]bool) Formatter {
	if resolving[t] {
		return nil
	}
	resolving[t] = true
	defer delete(resolving, t)

	r.mu.RLock()
	f, ok := r.byType[t]
	interfaces := r.interfaces
	r.mu.RUnlock()
	if ok {
		return f
	}

	if t.Kind() == reflect.Ptr {
		if elem := r.forType(t.Elem(), resolving); elem != nil {
			return &pointerFormatter{typ: t, elem: elem}
		}
	}

	for _, it := range interfaces {
		if t.Implements(it) {
			return &coercingFormatter{typ: t, target: r.lookupType(it)}
		}
	}

	if isTextType(t) {
		return &textFormatter{typ: t}
	}

	if (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8 {
		if elem := r.forType(t.Elem(), resolving); elem != nil {
			return &collectionFormatter{typ: t, elem: elem}
		}
	}

	return nil
}

func (r *formatterRegistry) lookupType(t reflect.Type) Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byType[t]
}

func isTextType(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr || t.Kind() == reflect.Interface {
		return false
	}

	pt := reflect.PtrTo(t)
	return (t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) && pt.Implements(textUnmarshalerType)
}
