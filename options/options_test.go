package options

import (
	"testing"
	"time"

	"github.com/mongodb/grip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		opts Bucket
		ok   bool
	}{
		{name: "Local", opts: Bucket{Type: PailLocal, Name: "dir"}, ok: true},
		{name: "UnknownType", opts: Bucket{Type: "ftp", Name: "dir"}},
		{name: "MissingName", opts: Bucket{Type: PailLocal}},
		{name: "S3WithoutOptions", opts: Bucket{Type: PailS3, Name: "bucket"}},
		{name: "S3WithoutSecret", opts: Bucket{Type: PailS3, Name: "bucket", S3: &S3Bucket{Key: "key"}}},
		{name: "S3NegativeRetries", opts: Bucket{Type: PailS3, Name: "bucket", S3: &S3Bucket{Key: "key", Secret: "secret", MaxRetries: -1}}},
		{name: "S3", opts: Bucket{Type: PailS3, Name: "bucket", S3: &S3Bucket{Key: "key", Secret: "secret"}}, ok: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.opts.Validate()
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	t.Run("S3Defaults", func(t *testing.T) {
		opts := Bucket{Type: PailS3, Name: "bucket", S3: &S3Bucket{Key: "key", Secret: "secret"}}
		require.NoError(t, opts.Validate())
		assert.Equal(t, defaultS3Region, opts.S3.Region)
		assert.Equal(t, defaultS3MaxRetries, opts.S3.MaxRetries)
	})
}

func TestBinderValidate(t *testing.T) {
	opts := Binder{}
	require.NoError(t, opts.Validate())
	assert.Equal(t, "bind", opts.TagName)

	opts = Binder{TagName: "json"}
	require.NoError(t, opts.Validate())
	assert.Equal(t, "json", opts.TagName)

	opts = Binder{TagName: "-"}
	assert.Error(t, opts.Validate())
}

func TestPutGetValidate(t *testing.T) {
	type record struct{ Name string }

	assert.NoError(t, Put{Key: "k", Records: []interface{}{record{}}}.Validate())
	assert.Error(t, Put{Records: []interface{}{record{}}}.Validate())
	assert.Error(t, Put{Key: "k"}.Validate())
	assert.Error(t, Put{Key: "k", Records: []interface{}{record{}, nil}}.Validate())

	var r record
	assert.NoError(t, Get{Key: "k", Target: &r}.Validate())
	assert.Error(t, Get{Target: &r}.Validate())
	assert.Error(t, Get{Key: "k"}.Validate())
	assert.Error(t, Get{Key: "k", Target: r}.Validate())
	assert.Error(t, Get{Key: "k", Target: (*record)(nil)}.Validate())
}

func TestFollowValidate(t *testing.T) {
	newRecord := func() interface{} { return &struct{}{} }
	handle := func(interface{}) error { return nil }

	opts := Follow{Filename: "f", Exit: make(chan struct{}), New: newRecord, Handle: handle}
	require.NoError(t, opts.Validate())
	assert.Equal(t, "form", opts.Encoding)
	assert.Equal(t, 1, opts.MaxBufferSize)

	opts = Follow{Filename: "f", Exit: make(chan struct{}), New: newRecord, Key: "k", Encoding: "json", MaxBufferSize: 10}
	require.NoError(t, opts.Validate())
	assert.Equal(t, "json", opts.Encoding)
	assert.Equal(t, 10, opts.MaxBufferSize)

	for _, invalid := range []Follow{
		{Exit: make(chan struct{}), New: newRecord, Handle: handle},
		{Filename: "f", New: newRecord, Handle: handle},
		{Filename: "f", Exit: make(chan struct{}), Handle: handle},
		{Filename: "f", Exit: make(chan struct{}), New: newRecord},
	} {
		assert.Error(t, invalid.Validate())
	}
}

func TestBufferValidate(t *testing.T) {
	opts := Buffer{Key: "k"}
	require.NoError(t, opts.Validate())
	assert.Equal(t, defaultMaxBufferSize, opts.MaxBufferSize)
	assert.Equal(t, grip.GetSender(), opts.Local)

	opts = Buffer{Key: "k", MaxBufferSize: 5, FlushInterval: time.Second}
	require.NoError(t, opts.Validate())
	assert.Equal(t, 5, opts.MaxBufferSize)

	opts = Buffer{}
	assert.Error(t, opts.Validate())
}
