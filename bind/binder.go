// Package bind copies string fields into structs and renders structs back
// into string fields, resolving a formatter for every struct field through a
// format.Registry.
//
// Field names come from the "bind" tag (configurable), falling back to the Go
// field name. Nested structs that have no formatter of their own are
// addressed with dotted paths, such as "address.city"; embedded structs are
// flattened into their parent.
package bind

import (
	"reflect"
	"sort"
	"strings"

	"github.com/julianedwards/formatter/format"
	"github.com/julianedwards/formatter/options"
	"github.com/pkg/errors"
)

// Fields maps field paths to their string representation.
type Fields map[string]string

// Keys returns the field paths in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

type Binder struct {
	registry format.Registry
	opts     options.Binder
}

func NewBinder(registry format.Registry, opts options.Binder) (*Binder, error) {
	if registry == nil {
		return nil, errors.New("must specify a formatter registry")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid binder options")
	}

	return &Binder{registry: registry, opts: opts}, nil
}

// NewDefaultBinder binds through the global registry with default options.
func NewDefaultBinder() *Binder {
	b, _ := NewBinder(format.GetGlobalRegistry(), options.Binder{})
	return b
}

// Bind parses fields into target, which must be a non-nil pointer to a
// struct. Empty values reset their field to its zero value. Every failing
// field is reported in the returned Errors; the other fields are still set.
func (b *Binder) Bind(target interface{}, fields Fields) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("cannot bind into '%T', need a non-nil pointer to a struct", target)
	}
	rv = rv.Elem()

	plans, err := b.plan(rv.Type())
	if err != nil {
		return err
	}

	var errs Errors
	known := make(map[string]bool, len(plans))
	for _, p := range plans {
		known[p.path] = true

		text, ok := fields[p.path]
		if !ok {
			continue
		}
		if err := b.bindField(rv, p, text); err != nil {
			errs = append(errs, &FieldError{Field: p.path, Value: text, Err: err})
		}
	}

	if b.opts.ErrorUnknown {
		for _, k := range fields.Keys() {
			if !known[k] {
				errs = append(errs, &FieldError{Field: k, Value: fields[k], Err: ErrUnknownField})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (b *Binder) bindField(rv reflect.Value, p fieldPlan, text string) error {
	if p.err != nil {
		return p.err
	}

	fv, _ := fieldByIndex(rv, p.index, true)
	if text == "" {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	v, err := p.formatter.Parse(text, b.opts.Locale)
	if err != nil {
		return err
	}

	cv, err := format.Coerce(reflect.ValueOf(v), fv.Type())
	if err != nil {
		return err
	}
	fv.Set(cv)

	return nil
}

// Render prints every field of source, a struct or a pointer to one. Fields
// below nil nested pointers are omitted.
func (b *Binder) Render(source interface{}) (Fields, error) {
	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot render '%T', need a struct", source)
	}

	plans, err := b.plan(rv.Type())
	if err != nil {
		return nil, err
	}

	out := make(Fields, len(plans))
	var errs Errors
	for _, p := range plans {
		fv, ok := fieldByIndex(rv, p.index, false)
		if !ok {
			continue
		}
		if p.err != nil {
			errs = append(errs, &FieldError{Field: p.path, Err: p.err})
			continue
		}

		text, err := p.formatter.Print(fv.Interface(), b.opts.Locale)
		if err != nil {
			errs = append(errs, &FieldError{Field: p.path, Err: err})
			continue
		}
		out[p.path] = text
	}

	if len(errs) > 0 {
		return out, errs
	}

	return out, nil
}

type fieldPlan struct {
	path      string
	index     []int
	formatter format.Formatter
	err       error
}

func (b *Binder) plan(t reflect.Type) ([]fieldPlan, error) {
	return b.planStruct(t, "", nil, map[reflect.Type]bool{t: true})
}

func (b *Binder) planStruct(t reflect.Type, prefix string, index []int, parents map[reflect.Type]bool) ([]fieldPlan, error) {
	var plans []fieldPlan
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}

		name, named, skip := b.fieldName(sf)
		if skip {
			continue
		}
		path := joinPath(prefix, name)
		idx := append(append([]int{}, index...), i)

		f, err := b.registry.Resolve(format.DescriptorForField(sf))
		if err == nil {
			plans = append(plans, fieldPlan{path: path, index: idx, formatter: f})
			continue
		}
		if !format.IsNotFound(err) {
			return nil, errors.Wrapf(err, "resolving formatter for field '%s'", path)
		}

		st := sf.Type
		if st.Kind() == reflect.Ptr {
			st = st.Elem()
		}
		if st.Kind() != reflect.Struct {
			plans = append(plans, fieldPlan{path: path, index: idx, err: err})
			continue
		}
		if parents[st] {
			continue
		}

		childPrefix := path
		if sf.Anonymous && !named {
			childPrefix = prefix
		}

		parents[st] = true
		children, err := b.planStruct(st, childPrefix, idx, parents)
		delete(parents, st)
		if err != nil {
			return nil, err
		}
		plans = append(plans, children...)
	}

	return plans, nil
}

func (b *Binder) fieldName(sf reflect.StructField) (name string, named bool, skip bool) {
	tag, ok := sf.Tag.Lookup(b.opts.TagName)
	if !ok {
		return sf.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}

	name = strings.TrimSpace(strings.Split(tag, ",")[0])
	if name == "" {
		return sf.Name, false, false
	}

	return name, true, false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

// fieldByIndex walks index from the struct v, stepping through nested
// pointers. With alloc set nil pointers are allocated; otherwise the walk
// stops at them.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}

	return v, true
}
