package options

import (
	"github.com/mongodb/grip"
)

type Put struct {
	// Key is the prefix the record is stored under; a timestamp and the
	// encoding's extension complete the bucket key.
	Key string
	// Records are structs, or pointers to structs, rendered through the
	// store's binder and written as a single object.
	Records  []interface{}
	Encoding string
}

func (o Put) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Key == "", "must specify a key")
	catcher.NewWhen(len(o.Records) == 0, "must specify at least one record")
	for i, r := range o.Records {
		catcher.ErrorfWhen(r == nil, "record %d cannot be nil", i)
	}

	return catcher.Resolve()
}

type Follow struct {
	Filename string
	Exit     chan struct{}
	// Encoding decodes each line of the file, "form" by default.
	Encoding string
	// New returns a pointer to the struct each decoded record is bound into.
	New func() interface{}
	// Handle receives every bound record. Returning an error stops
	// following.
	Handle func(interface{}) error
	// Key, when set, also stores every batch of bound records under this
	// prefix once MaxBufferSize records have been read.
	Key           string
	MaxBufferSize int
	// FromStart reads the file from its beginning instead of only following
	// lines appended after the call.
	FromStart bool
}

func (o *Follow) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Filename == "", "must specify a filename")
	catcher.NewWhen(o.Exit == nil, "exit channel cannot be nil")
	catcher.NewWhen(o.New == nil, "must specify a record constructor")
	catcher.NewWhen(o.Handle == nil && o.Key == "", "must specify a handler or a key to store records under")

	if o.Encoding == "" {
		o.Encoding = "form"
	}
	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = 1
	}

	return catcher.Resolve()
}
