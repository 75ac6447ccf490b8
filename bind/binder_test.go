package bind

import (
	"reflect"
	"testing"
	"time"

	"github.com/julianedwards/formatter/format"
	"github.com/julianedwards/formatter/options"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type address struct {
	Street string `bind:"street"`
	City   string `bind:"city"`
}

type audit struct {
	CreatedBy string `bind:"created_by"`
}

type Audit struct {
	UpdatedBy string `bind:"updated_by"`
}

type celsius float64

type reading struct {
	audit
	Audit

	Station  string        `bind:"station"`
	Taken    time.Time     `bind:"taken" datetime:"iso=date"`
	Interval time.Duration `bind:"interval"`
	Temp     celsius       `bind:"temp"`
	Humidity float64       `bind:"humidity" number:"percent,fraction=1"`
	Tags     []string      `bind:"tags"`
	Retries  *int          `bind:"retries"`
	Home     address       `bind:"home"`
	Work     *address      `bind:"work"`
	Ignored  string        `bind:"-"`
	Untagged int
	internal string
}

func newTestBinder(t *testing.T, opts options.Binder) *Binder {
	reg := format.NewDefaultRegistry()
	float, ok := reg.GetFormatter(format.DescriptorForValue(float64(0)))
	require.True(t, ok)
	require.NoError(t, reg.AddFormatterByType(reflect.TypeOf(celsius(0)), float))

	b, err := NewBinder(reg, opts)
	require.NoError(t, err)
	return b
}

func readingFields() Fields {
	return Fields{
		"updated_by":  "ops",
		"station":     "north-1",
		"taken":       "2021-11-19",
		"interval":    "1m30s",
		"temp":        "21.5",
		"humidity":    "45.5%",
		"tags":        "a,b",
		"retries":     "3",
		"home.street": "Main St",
		"home.city":   "Springfield",
		"work.street": "Elm St",
		"work.city":   "Shelbyville",
		"Untagged":    "7",
	}
}

func TestNewBinder(t *testing.T) {
	_, err := NewBinder(nil, options.Binder{})
	assert.Error(t, err)

	_, err = NewBinder(format.NewRegistry(), options.Binder{TagName: "-"})
	assert.Error(t, err)

	b, err := NewBinder(format.NewRegistry(), options.Binder{})
	require.NoError(t, err)
	assert.Equal(t, "bind", b.opts.TagName)

	assert.NotNil(t, NewDefaultBinder())
}

func TestBind(t *testing.T) {
	b := newTestBinder(t, options.Binder{})

	var r reading
	r.Ignored = "keep"
	require.NoError(t, b.Bind(&r, readingFields()))

	assert.Equal(t, "ops", r.UpdatedBy)
	assert.Equal(t, "north-1", r.Station)
	assert.True(t, time.Date(2021, time.November, 19, 0, 0, 0, 0, time.UTC).Equal(r.Taken))
	assert.Equal(t, 90*time.Second, r.Interval)
	assert.Equal(t, celsius(21.5), r.Temp)
	assert.InDelta(t, 0.455, r.Humidity, 1e-9)
	assert.Equal(t, []string{"a", "b"}, r.Tags)
	require.NotNil(t, r.Retries)
	assert.Equal(t, 3, *r.Retries)
	assert.Equal(t, address{Street: "Main St", City: "Springfield"}, r.Home)
	require.NotNil(t, r.Work)
	assert.Equal(t, address{Street: "Elm St", City: "Shelbyville"}, *r.Work)
	assert.Equal(t, 7, r.Untagged)
	assert.Equal(t, "keep", r.Ignored)
	assert.Empty(t, r.CreatedBy)

	t.Run("EmptyResetsToZero", func(t *testing.T) {
		require.NoError(t, b.Bind(&r, Fields{"station": "", "retries": "", "tags": ""}))
		assert.Empty(t, r.Station)
		assert.Nil(t, r.Retries)
		assert.Nil(t, r.Tags)
	})
	t.Run("UnknownFieldsIgnored", func(t *testing.T) {
		assert.NoError(t, b.Bind(&r, Fields{"nope": "1", "-": "x", "internal": "y", "Ignored": "z"}))
		assert.Equal(t, "keep", r.Ignored)
		assert.Empty(t, r.internal)
	})
	t.Run("Locale", func(t *testing.T) {
		b := newTestBinder(t, options.Binder{Locale: language.German})
		var r reading
		require.NoError(t, b.Bind(&r, Fields{"humidity": "12,5%"}))
		assert.InDelta(t, 0.125, r.Humidity, 1e-9)
	})
}

func TestBindErrors(t *testing.T) {
	b := newTestBinder(t, options.Binder{})

	var r reading
	err := b.Bind(&r, Fields{
		"station":  "south-2",
		"interval": "often",
		"retries":  "three",
	})
	require.Error(t, err)

	errs, ok := err.(Errors)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "interval", errs[0].Field)
	assert.Equal(t, "often", errs[0].Value)
	assert.Equal(t, "retries", errs[1].Field)
	assert.Contains(t, err.Error(), "field 'interval'")

	fe, ok := errs.Field("retries")
	require.True(t, ok)
	assert.Equal(t, "three", fe.Value)
	_, ok = errs.Field("station")
	assert.False(t, ok)

	assert.Equal(t, "south-2", r.Station)

	t.Run("UnknownFields", func(t *testing.T) {
		b := newTestBinder(t, options.Binder{ErrorUnknown: true})
		err := b.Bind(&r, Fields{"station": "x", "zzz": "1", "aaa": "2"})
		require.Error(t, err)

		errs := err.(Errors)
		require.Len(t, errs, 2)
		assert.Equal(t, "aaa", errs[0].Field)
		assert.Equal(t, ErrUnknownField, errors.Cause(errs[1]))
	})
	t.Run("InvalidTargets", func(t *testing.T) {
		assert.Error(t, b.Bind(r, Fields{}))
		assert.Error(t, b.Bind((*reading)(nil), Fields{}))
		n := 1
		assert.Error(t, b.Bind(&n, Fields{}))
	})
}

func TestRender(t *testing.T) {
	b := newTestBinder(t, options.Binder{})

	var r reading
	require.NoError(t, b.Bind(&r, readingFields()))

	out, err := b.Render(&r)
	require.NoError(t, err)
	assert.Equal(t, readingFields(), out)

	t.Run("ByValue", func(t *testing.T) {
		out, err := b.Render(r)
		require.NoError(t, err)
		assert.Equal(t, readingFields(), out)
	})
	t.Run("NilNestedPointerOmitted", func(t *testing.T) {
		r.Work = nil
		out, err := b.Render(r)
		require.NoError(t, err)
		assert.NotContains(t, out, "work.street")
		assert.Contains(t, out, "home.street")
	})
	t.Run("Zero", func(t *testing.T) {
		out, err := b.Render(reading{})
		require.NoError(t, err)
		assert.Equal(t, "0001-01-01", out["taken"])
		assert.Equal(t, "0s", out["interval"])
		assert.Equal(t, "", out["retries"])
		assert.Equal(t, "", out["tags"])
		assert.Equal(t, "0", out["Untagged"])
	})
	t.Run("InvalidSources", func(t *testing.T) {
		_, err := b.Render(1)
		assert.Error(t, err)
		_, err = b.Render((*reading)(nil))
		assert.Error(t, err)
	})
}

func TestUnformattableFields(t *testing.T) {
	type withChannel struct {
		Name string `bind:"name"`
		Ch   chan int
	}
	b := newTestBinder(t, options.Binder{})

	out, err := b.Render(withChannel{Name: "x"})
	require.Error(t, err)
	errs := err.(Errors)
	require.Len(t, errs, 1)
	assert.Equal(t, "Ch", errs[0].Field)
	assert.True(t, format.IsNotFound(errs[0].Err))
	assert.Equal(t, Fields{"name": "x"}, out)

	var w withChannel
	assert.NoError(t, b.Bind(&w, Fields{"name": "y"}))
	assert.Error(t, b.Bind(&w, Fields{"Ch": "1"}))
}

func TestMisconfiguredAnnotation(t *testing.T) {
	type badDate struct {
		When time.Time `datetime:"iso=week"`
	}
	b := newTestBinder(t, options.Binder{})

	_, err := b.Render(badDate{})
	assert.Error(t, err)
	assert.Error(t, b.Bind(&badDate{}, Fields{}))
}

type node struct {
	Name string `bind:"name"`
	Next *node  `bind:"next"`
}

func TestRecursiveStructs(t *testing.T) {
	b := newTestBinder(t, options.Binder{})

	out, err := b.Render(node{Name: "head", Next: &node{Name: "tail"}})
	require.NoError(t, err)
	assert.Equal(t, Fields{"name": "head"}, out)
}

func TestFieldsKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Fields{"c": "", "a": "", "b": ""}.Keys())
	assert.Empty(t, Fields{}.Keys())
}
