package encoding

import "github.com/julianedwards/formatter/bind"

// Encoding serializes batches of rendered records.
type Encoding interface {
	String() string
	Extension() string
	Marshal([]bind.Fields) ([]byte, error)
	Unmarshal([]byte) ([]bind.Fields, error)
}

type EncodingRegistry interface {
	AddNew(Encoding)
	Get(string) (Encoding, bool)
	GetByExtension(string) (Encoding, bool)
}
