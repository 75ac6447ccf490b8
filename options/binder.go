package options

import (
	"github.com/mongodb/grip"
	"golang.org/x/text/language"
)

const defaultBindTag = "bind"

type Binder struct {
	// Locale is handed to every formatter. The zero value is language.Und.
	Locale language.Tag
	// TagName is the struct tag holding field names, "bind" by default.
	// A name of "-" skips the field.
	TagName string
	// ErrorUnknown makes Bind fail on fields that match no struct field.
	ErrorUnknown bool
}

func (o *Binder) Validate() error {
	catcher := grip.NewBasicCatcher()
	if o.TagName == "" {
		o.TagName = defaultBindTag
	}
	catcher.NewWhen(o.TagName == "-", "tag name cannot be '-'")

	return catcher.Resolve()
}
