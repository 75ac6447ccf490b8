package options

import (
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/send"
)

type Buffer struct {
	Key      string
	Encoding string

	// Local sender for errors raised by background flushes.
	Local send.Sender `bson:"-" json:"-" yaml:"-"`

	// MaxBufferSize is the maximum number of records to buffer before
	// flushing them as one object.
	MaxBufferSize int `bson:"max_buffer_size" json:"max_buffer_size" yaml:"max_buffer_size"`
	// FlushInterval is the interval at which to flush records, regardless
	// of whether the max buffer size has been reached or not. Setting
	// FlushInterval to a duration less than or equal to 0 disables timed
	// flushes.
	FlushInterval time.Duration `bson:"flush_interval" json:"flush_interval" yaml:"flush_interval"`
}

func (o *Buffer) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Key == "", "must specify a key")

	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = defaultMaxBufferSize
	}
	if o.Local == nil {
		o.Local = grip.GetSender()
	}

	return catcher.Resolve()
}

const defaultMaxBufferSize = 1000
