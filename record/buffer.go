package record

import (
	"context"
	"sync"
	"time"

	"github.com/julianedwards/formatter/options"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Buffer collects records and writes them to a Store as one object once
// MaxBufferSize records are held or FlushInterval has passed. Records are
// rendered when flushed, so callers should not modify pointers they have
// added.
type Buffer struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	buffer    []interface{}
	lastFlush time.Time
	timer     *time.Timer
	closed    bool
	keys      []string

	opts  options.Buffer
	store Store
}

func NewBuffer(ctx context.Context, store Store, opts options.Buffer) (*Buffer, error) {
	if store == nil {
		return nil, errors.New("must specify a store")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid buffer options")
	}

	b := &Buffer{
		opts:      opts,
		store:     store,
		lastFlush: time.Now(),
	}

	ctx, cancel := context.WithCancel(ctx)
	b.ctx = ctx
	b.cancel = cancel

	if opts.FlushInterval > 0 {
		go b.timedFlush()
	}

	return b, nil
}

// Add buffers a record, flushing when the buffer is full.
func (b *Buffer) Add(record interface{}) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("cannot add to a closed record buffer")
	}

	b.buffer = append(b.buffer, record)
	if len(b.buffer) >= b.opts.MaxBufferSize {
		if err := b.flush(b.ctx); err != nil {
			b.opts.Local.Send(message.NewErrorMessage(level.Error, err))
			return err
		}
	}

	return nil
}

// Flush writes any buffered records to the store.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	return b.flush(ctx)
}

// Keys returns the keys of every object written so far.
func (b *Buffer) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.keys...)
}

// Close flushes anything left in the buffer and stops timed flushes. After
// Close any call to Add errors; subsequent calls to Close no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer b.cancel()

	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.flush(b.ctx); err != nil {
		b.opts.Local.Send(message.NewErrorMessage(level.Error, err))
		return errors.Wrap(err, "flushing buffer")
	}

	return nil
}

func (b *Buffer) timedFlush() {
	b.mu.Lock()
	b.timer = time.NewTimer(b.opts.FlushInterval)
	b.mu.Unlock()
	defer b.timer.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.timer.C:
			b.mu.Lock()
			if len(b.buffer) > 0 && time.Since(b.lastFlush) >= b.opts.FlushInterval {
				if err := b.flush(b.ctx); err != nil {
					b.opts.Local.Send(message.NewErrorMessage(level.Error, err))
				}
			}
			_ = b.timer.Reset(b.opts.FlushInterval)
			b.mu.Unlock()
		}
	}
}

func (b *Buffer) flush(ctx context.Context) error {
	if len(b.buffer) == 0 {
		return nil
	}

	key, err := b.store.Put(ctx, options.Put{
		Key:      b.opts.Key,
		Records:  b.buffer,
		Encoding: b.opts.Encoding,
	})
	if err != nil {
		return err
	}

	b.keys = append(b.keys, key)
	b.buffer = nil
	b.lastFlush = time.Now()

	return nil
}
