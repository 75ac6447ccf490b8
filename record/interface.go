package record

import (
	"context"

	"github.com/julianedwards/formatter/options"
)

// Store persists structs as encoded batches of rendered fields.
type Store interface {
	// Put renders opts.Records and writes them as one object, returning
	// its key.
	Put(context.Context, options.Put) (string, error)
	// Get reads the object stored under opts.Key and binds its records
	// into opts.Target.
	Get(context.Context, options.Get) error
	// Keys lists object keys under a prefix in sorted order.
	Keys(context.Context, string) ([]string, error)
	// Iterator walks every record under opts.Prefix in key order.
	Iterator(context.Context, options.Iterate) (*Iterator, error)
	// Follow tails a file, binding every decoded line into a new record.
	Follow(context.Context, options.Follow) error
}
