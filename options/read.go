package options

import (
	"reflect"

	"github.com/mongodb/grip"
)

type Get struct {
	// Key is the full bucket key of a stored object.
	Key string
	// Target is a pointer to a struct, which requires the object to hold
	// exactly one record, or a pointer to a slice of structs or struct
	// pointers, which receives every record.
	Target interface{}
}

func (o Get) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Key == "", "must specify a key")

	rv := reflect.ValueOf(o.Target)
	catcher.NewWhen(rv.Kind() != reflect.Ptr || rv.IsNil(), "target must be a non-nil pointer")

	return catcher.Resolve()
}

type Iterate struct {
	// Prefix limits iteration to keys under it.
	Prefix string
}
