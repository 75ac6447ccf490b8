package encode

import (
	"sync"

	"github.com/julianedwards/formatter/encoding"
)

var globalRegistry = &encodingRegistry{
	registry: map[string]encoding.Encoding{
		TEXT: &textEncoding{},
		JSON: &jsonEncoding{},
		FORM: &formEncoding{},
	},
}

func GetGlobalRegistry() encoding.EncodingRegistry { return globalRegistry }

type encodingRegistry struct {
	mu       sync.RWMutex
	registry map[string]encoding.Encoding
}

func NewEncodingRegistry() encoding.EncodingRegistry {
	return &encodingRegistry{
		registry: map[string]encoding.Encoding{},
	}
}

// AddNew registers an encoding under its name. The first encoding registered
// for a name is kept.
func (r *encodingRegistry) AddNew(e encoding.Encoding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registry[e.String()]; ok {
		return
	}

	r.registry[e.String()] = e
}

func (r *encodingRegistry) Get(name string) (encoding.Encoding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.registry[name]
	return e, ok
}

func (r *encodingRegistry) GetByExtension(ext string) (encoding.Encoding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.registry {
		if e.Extension() == ext {
			return e, true
		}
	}

	return nil, false
}
