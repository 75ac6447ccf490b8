package record

import "github.com/julianedwards/formatter/bind"

// Entry is a single record read back from a stored object.
type Entry struct {
	Key    string
	Index  int
	Fields bind.Fields
}
