package record

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/evergreen-ci/pail"
	"github.com/julianedwards/formatter/bind"
	"github.com/julianedwards/formatter/encode"
	"github.com/julianedwards/formatter/encoding"
	"github.com/julianedwards/formatter/internal"
	"github.com/julianedwards/formatter/options"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/papertrail/go-tail/follower"
	"github.com/pkg/errors"
)

const recordsPrefix = "records"

type bucketStore struct {
	mu               sync.Mutex
	bucket           pail.Bucket
	binder           *bind.Binder
	encodingRegistry encoding.EncodingRegistry
	seq              int
}

// NewBucketStore opens the bucket described by opts and stores records under
// its "records" prefix. A nil binder uses bind.NewDefaultBinder.
func NewBucketStore(ctx context.Context, opts options.Bucket, binder *bind.Binder) (Store, error) {
	bucket, err := internal.CreateBucket(ctx, recordsPrefix, opts)
	if err != nil {
		return nil, errors.Wrap(err, "creating records bucket")
	}

	return NewStore(bucket, binder), nil
}

// NewStore stores records in an existing bucket.
func NewStore(bucket pail.Bucket, binder *bind.Binder) Store {
	if binder == nil {
		binder = bind.NewDefaultBinder()
	}

	return &bucketStore{
		bucket:           bucket,
		binder:           binder,
		encodingRegistry: encode.GetGlobalRegistry(),
	}
}

func (s *bucketStore) Put(ctx context.Context, opts options.Put) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	records := make([]bind.Fields, 0, len(opts.Records))
	for i, r := range opts.Records {
		fields, err := s.binder.Render(r)
		if err != nil {
			return "", errors.Wrapf(err, "rendering record %d", i)
		}
		records = append(records, fields)
	}

	return s.write(ctx, opts.Key, opts.Encoding, records)
}

func (s *bucketStore) Get(ctx context.Context, opts options.Get) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	records, err := s.read(ctx, opts.Key)
	if err != nil {
		return err
	}

	return bindAll(s.binder, opts.Target, records)
}

func (s *bucketStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	it, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing record keys")
	}

	var keys []string
	for it.Next(ctx) {
		keys = append(keys, it.Item().Name())
	}
	if err = it.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating record keys")
	}

	sort.Strings(keys)

	return keys, nil
}

func (s *bucketStore) Follow(ctx context.Context, opts options.Follow) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	e, err := s.getEncoding(opts.Encoding)
	if err != nil {
		return err
	}

	whence := io.SeekEnd
	if opts.FromStart {
		whence = io.SeekStart
	}
	t, err := follower.New(opts.Filename, follower.Config{
		Whence: whence,
		Offset: 0,
		Reopen: true,
	})
	if err != nil {
		return errors.Wrap(err, "creating new file follower")
	}
	defer t.Close()

	var buffer []interface{}
	catcher := grip.NewBasicCatcher()
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		_, err := s.Put(ctx, options.Put{
			Key:      opts.Key,
			Records:  buffer,
			Encoding: opts.Encoding,
		})
		catcher.Wrap(err, "storing followed records")
		buffer = nil
	}

	lines := t.Lines()
follow:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break follow
			}

			values, err := s.decode(e, line.Bytes(), opts.New)
			if err != nil {
				catcher.Add(err)
				break follow
			}
			for _, v := range values {
				if opts.Handle != nil {
					if err = opts.Handle(v); err != nil {
						catcher.Wrap(err, "handling followed record")
						break follow
					}
				}
				if opts.Key != "" {
					buffer = append(buffer, v)
				}
			}

			if len(buffer) >= opts.MaxBufferSize {
				flush()
				if catcher.HasErrors() {
					break follow
				}
			}
		case <-opts.Exit:
			break follow
		case <-ctx.Done():
			catcher.Add(ctx.Err())
			break follow
		}
	}
	flush()
	catcher.Wrap(t.Err(), "following file")

	return catcher.Resolve()
}

func (s *bucketStore) decode(e encoding.Encoding, line []byte, newRecord func() interface{}) ([]interface{}, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}

	records, err := e.Unmarshal(line)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding line as '%s'", e)
	}

	out := make([]interface{}, 0, len(records))
	for _, fields := range records {
		v := newRecord()
		if err = s.binder.Bind(v, fields); err != nil {
			return nil, errors.Wrap(err, "binding followed record")
		}
		out = append(out, v)
	}

	return out, nil
}

func (s *bucketStore) Iterator(ctx context.Context, opts options.Iterate) (*Iterator, error) {
	keys, err := s.Keys(ctx, opts.Prefix)
	if err != nil {
		return nil, err
	}

	return &Iterator{store: s, keys: keys}, nil
}

func (s *bucketStore) write(ctx context.Context, prefix, encodingName string, records []bind.Fields) (string, error) {
	e, err := s.getEncoding(encodingName)
	if err != nil {
		return "", err
	}

	data, err := e.Marshal(records)
	if err != nil {
		return "", errors.Wrapf(err, "marshaling records to '%s'", e)
	}

	key := s.newKey(prefix, e.Extension())
	if err = s.bucket.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", errors.Wrap(err, "uploading records")
	}

	grip.Debug(message.Fields{
		"message":  "stored records",
		"key":      key,
		"encoding": e.String(),
		"records":  len(records),
	})

	return key, nil
}

func (s *bucketStore) read(ctx context.Context, key string) ([]bind.Fields, error) {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	e, ok := s.encodingRegistry.GetByExtension(ext)
	if !ok {
		return nil, errors.Errorf("no encoding for extension '%s' of key '%s'", ext, key)
	}

	r, err := s.bucket.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "getting '%s'", key)
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading '%s'", key)
	}

	records, err := e.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshaling '%s'", key)
	}

	return records, nil
}

func (s *bucketStore) getEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		name = encode.TEXT
	}

	e, ok := s.encodingRegistry.Get(name)
	if !ok {
		return nil, errors.Errorf("unrecognized encoding '%s'", name)
	}

	return e, nil
}

// newKey builds keys that sort in write order.
func (s *bucketStore) newKey(prefix, ext string) string {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	key := fmt.Sprintf("%d-%06d", time.Now().UnixNano(), seq%1000000)
	if prefix != "" {
		key = prefix + "/" + key
	}
	if ext != "" {
		key += "." + ext
	}

	return key
}

// bindAll binds records into a pointer to a struct, which takes exactly one
// record, or a pointer to a slice of structs or struct pointers.
func bindAll(binder *bind.Binder, target interface{}, records []bind.Fields) error {
	rv := reflect.ValueOf(target).Elem()
	switch rv.Kind() {
	case reflect.Struct:
		if len(records) != 1 {
			return errors.Errorf("cannot bind %d records into a single '%s'", len(records), rv.Type())
		}
		return errors.Wrap(binder.Bind(target, records[0]), "binding record")
	case reflect.Slice:
		elem := rv.Type().Elem()
		base := elem
		if elem.Kind() == reflect.Ptr {
			base = elem.Elem()
		}
		if base.Kind() != reflect.Struct {
			return errors.Errorf("cannot bind records into '%s'", rv.Type())
		}

		out := reflect.MakeSlice(rv.Type(), 0, len(records))
		for i, fields := range records {
			p := reflect.New(base)
			if err := binder.Bind(p.Interface(), fields); err != nil {
				return errors.Wrapf(err, "binding record %d", i)
			}
			if elem.Kind() == reflect.Ptr {
				out = reflect.Append(out, p)
			} else {
				out = reflect.Append(out, p.Elem())
			}
		}
		rv.Set(out)

		return nil
	default:
		return errors.Errorf("cannot bind records into '%s'", rv.Type())
	}
}
