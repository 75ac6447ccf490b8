package record

import (
	"context"
	"testing"
	"time"

	"github.com/julianedwards/formatter/encode"
	"github.com/julianedwards/formatter/options"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := NewBuffer(ctx, nil, options.Buffer{Key: "k"})
	assert.Error(t, err)

	_, err = NewBuffer(ctx, newLocalStore(t), options.Buffer{})
	assert.Error(t, err)

	b, err := NewBuffer(ctx, newLocalStore(t), options.Buffer{Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1000, b.opts.MaxBufferSize)
	assert.NotNil(t, b.opts.Local)
	assert.NoError(t, b.Close())
}

func TestBufferFlushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("BufferSize", func(t *testing.T) {
		s := newLocalStore(t)
		b, err := NewBuffer(ctx, s, options.Buffer{Key: "buffered", Encoding: encode.JSON, MaxBufferSize: 2})
		require.NoError(t, err)

		require.NoError(t, b.Add(reading{Station: "a"}))
		assert.Empty(t, b.Keys())
		require.NoError(t, b.Add(&reading{Station: "b"}))
		assert.Len(t, b.Keys(), 1)
		require.NoError(t, b.Add(reading{Station: "c"}))
		assert.Len(t, b.Keys(), 1)

		require.NoError(t, b.Close())
		keys := b.Keys()
		require.Len(t, keys, 2)

		var first []reading
		require.NoError(t, s.Get(ctx, options.Get{Key: keys[0], Target: &first}))
		require.Len(t, first, 2)
		assert.Equal(t, "b", first[1].Station)

		var last reading
		require.NoError(t, s.Get(ctx, options.Get{Key: keys[1], Target: &last}))
		assert.Equal(t, "c", last.Station)

		stored, err := s.Keys(ctx, "buffered")
		require.NoError(t, err)
		assert.Equal(t, keys, stored)
	})
	t.Run("ManualFlush", func(t *testing.T) {
		b, err := NewBuffer(ctx, newLocalStore(t), options.Buffer{Key: "buffered"})
		require.NoError(t, err)

		require.NoError(t, b.Flush(ctx))
		assert.Empty(t, b.Keys())

		require.NoError(t, b.Add(reading{Station: "a"}))
		require.NoError(t, b.Flush(ctx))
		assert.Len(t, b.Keys(), 1)

		require.NoError(t, b.Close())
		assert.Len(t, b.Keys(), 1)
	})
	t.Run("TimedFlush", func(t *testing.T) {
		b, err := NewBuffer(ctx, newLocalStore(t), options.Buffer{
			Key:           "buffered",
			FlushInterval: 20 * time.Millisecond,
		})
		require.NoError(t, err)
		defer func() { assert.NoError(t, b.Close()) }()

		require.NoError(t, b.Add(reading{Station: "a"}))
		assert.Eventually(t, func() bool { return len(b.Keys()) == 1 }, 5*time.Second, 10*time.Millisecond)
	})
	t.Run("FlushErrors", func(t *testing.T) {
		sender, err := send.NewInternalLogger("buffer", send.LevelInfo{Default: level.Info, Threshold: level.Info})
		require.NoError(t, err)

		b, err := NewBuffer(ctx, newLocalStore(t), options.Buffer{
			Key:           "buffered",
			Encoding:      "xml",
			MaxBufferSize: 1,
			Local:         sender,
		})
		require.NoError(t, err)

		assert.Error(t, b.Add(reading{Station: "a"}))
		assert.True(t, sender.HasMessage())
	})
}

func TestBufferClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := NewBuffer(ctx, newLocalStore(t), options.Buffer{Key: "buffered"})
	require.NoError(t, err)

	assert.Error(t, b.Add(nil))
	require.NoError(t, b.Add(reading{Station: "a"}))
	require.NoError(t, b.Close())
	assert.Len(t, b.Keys(), 1)

	assert.Error(t, b.Add(reading{Station: "b"}))
	assert.NoError(t, b.Flush(ctx))
	assert.NoError(t, b.Close())
	assert.Len(t, b.Keys(), 1)
}
