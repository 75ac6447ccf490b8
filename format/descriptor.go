package format

import (
	"reflect"
	"strconv"
	"strings"
)

// Annotation is a single key:"value" entry from a struct tag.
type Annotation struct {
	Name  string
	Value string
}

// Options splits the value on commas, the way encoding/json reads its tags.
func (a Annotation) Options() []string {
	if a.Value == "" {
		return nil
	}

	return strings.Split(a.Value, ",")
}

// Attr returns the value of a key=value option.
func (a Annotation) Attr(key string) (string, bool) {
	for _, opt := range a.Options() {
		k, v, ok := cutOption(opt)
		if ok && k == key {
			return v, true
		}
	}

	return "", false
}

// Has reports whether a bare option is present.
func (a Annotation) Has(opt string) bool {
	for _, o := range a.Options() {
		if strings.TrimSpace(o) == opt {
			return true
		}
	}

	return false
}

func cutOption(opt string) (string, string, bool) {
	idx := strings.IndexByte(opt, '=')
	if idx < 0 {
		return "", "", false
	}

	return strings.TrimSpace(opt[:idx]), strings.TrimSpace(opt[idx+1:]), true
}

// TypeDescriptor describes the declared type at a binding site, together with
// the annotations found there.
type TypeDescriptor struct {
	Type        reflect.Type
	Field       string
	Annotations []Annotation
}

// DescriptorOf describes a bare type with no annotations.
func DescriptorOf(t reflect.Type) TypeDescriptor {
	return TypeDescriptor{Type: t}
}

// DescriptorForValue describes the dynamic type of v. A nil v gives a
// descriptor that never resolves.
func DescriptorForValue(v interface{}) TypeDescriptor {
	return TypeDescriptor{Type: reflect.TypeOf(v)}
}

// DescriptorForField describes a struct field, with every annotation of its
// tag in declaration order.
func DescriptorForField(f reflect.StructField) TypeDescriptor {
	return TypeDescriptor{
		Type:        f.Type,
		Field:       f.Name,
		Annotations: ParseTag(f.Tag),
	}
}

// Annotation returns the annotation with the given name.
func (d TypeDescriptor) Annotation(name string) (Annotation, bool) {
	for _, a := range d.Annotations {
		if a.Name == name {
			return a, true
		}
	}

	return Annotation{}, false
}

func (d TypeDescriptor) String() string {
	if d.Type == nil {
		return "<nil>"
	}
	if d.Field == "" {
		return d.Type.String()
	}

	return d.Field + " " + d.Type.String()
}

// ParseTag returns every key:"value" pair of the tag in declaration order.
// Parsing stops at the first malformed entry, matching reflect.StructTag.Lookup.
func ParseTag(tag reflect.StructTag) []Annotation {
	var out []Annotation
	for tag != "" {
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}

		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			break
		}
		name := string(tag[:i])
		tag = tag[i+1:]

		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			break
		}
		qvalue := string(tag[:i+1])
		tag = tag[i+1:]

		value, err := strconv.Unquote(qvalue)
		if err != nil {
			break
		}
		out = append(out, Annotation{Name: name, Value: value})
	}

	return out
}
