package record

import (
	"context"

	"github.com/julianedwards/formatter/bind"
	"github.com/pkg/errors"
)

// Iterator walks stored records one at a time, reading each object only when
// the previous one is exhausted.
type Iterator struct {
	store   *bucketStore
	keys    []string
	keyIdx  int
	records []bind.Fields
	recIdx  int
	current Entry
	err     error
}

func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	for it.recIdx >= len(it.records) {
		if it.keyIdx == len(it.keys) {
			return false
		}

		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}

		key := it.keys[it.keyIdx]
		records, err := it.store.read(ctx, key)
		if err != nil {
			it.err = errors.Wrap(err, "getting next record chunk")
			return false
		}

		it.records = records
		it.recIdx = 0
		it.keyIdx++
	}

	it.current = Entry{
		Key:    it.keys[it.keyIdx-1],
		Index:  it.recIdx,
		Fields: it.records[it.recIdx],
	}
	it.recIdx++

	return true
}

func (it *Iterator) Entry() Entry { return it.current }

// Bind binds the current record into target, a pointer to a struct.
func (it *Iterator) Bind(target interface{}) error {
	return it.store.binder.Bind(target, it.current.Fields)
}

func (it *Iterator) Err() error { return it.err }
