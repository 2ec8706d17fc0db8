package v8shim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyAttributeString(t *testing.T) {
	assert.Equal(t, "None", None.String())
	assert.Equal(t, "ReadOnly", ReadOnly.String())
	assert.Equal(t, "ReadOnly|DontDelete", (ReadOnly | DontDelete).String())
	assert.Equal(t, "ReadOnly|DontEnum|DontDelete", (ReadOnly | DontEnum | DontDelete).String())
	assert.EqualValues(t, 1, ReadOnly)
	assert.EqualValues(t, 2, DontEnum)
	assert.EqualValues(t, 4, DontDelete)
}

func TestAccessorStorageReplaceDisposesOldEntry(t *testing.T) {
	ctx := newTestContext(t)
	iso := ctx.Isolate()
	s := NewAccessorStorage()

	getter := func(String, AccessorInfo) Value { return Value{} }
	s.AddAccessor("x", getter, nil, ctx.NewString("first").Value, None)
	first, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 1, iso.Stats().LivePersistents)

	s.AddAccessor("x", getter, nil, ctx.NewString("second").Value, ReadOnly)
	assert.True(t, first.Data.IsEmpty(), "the replaced data handle is disposed")
	assert.Equal(t, 1, iso.Stats().LivePersistents)
	assert.Equal(t, 1, s.Len())

	second, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "second", second.Data.String())
	assert.Equal(t, ReadOnly, second.Attributes)

	s.Dispose()
	assert.Zero(t, iso.Stats().LivePersistents)
	assert.NotNil(t, usageError(s.Dispose), "disposing twice")
	assert.NotNil(t, usageError(func() { s.Get("x") }))
}

func TestAccessorStorageMissingEntry(t *testing.T) {
	s := NewAccessorStorage()
	defer s.Dispose()

	_, err := s.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.False(t, s.Has("nope"))
	assert.False(t, s.Remove("nope"))
}

func TestAccessorStorageEmptyData(t *testing.T) {
	ctx := newTestContext(t)
	s := NewAccessorStorage()
	s.AddAccessor("x", nil, nil, Value{}, DontEnum)
	d, err := s.Get("x")
	require.NoError(t, err)
	assert.Nil(t, d.Data)
	assert.Zero(t, ctx.Isolate().Stats().LivePersistents)
	s.Dispose()
}

func TestStorageIterationOrder(t *testing.T) {
	ctx := newTestContext(t)
	s := NewAttributeStorage()
	defer s.Dispose()

	for _, name := range []string{"c", "a", "b"} {
		s.AddAttribute(name, ctx.NewString(name).Value, None)
	}
	// Replacing keeps the original position.
	s.AddAttribute("c", ctx.NewString("C").Value, DontEnum)

	collect := func() (names, values []string) {
		for name, e := range s.All() {
			names = append(names, name)
			values = append(values, e.Value.String())
		}
		return
	}
	names, values := collect()
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.Equal(t, []string{"C", "a", "b"}, values)

	// The sequence is lazy and restartable.
	all := s.All()
	s.Remove("a")
	var again []string
	for name := range all {
		again = append(again, name)
	}
	assert.Equal(t, []string{"c", "b"}, again)

	// Breaking out early stops the iteration.
	var first []string
	for name := range all {
		first = append(first, name)
		break
	}
	assert.Equal(t, []string{"c"}, first)
	assert.Equal(t, 2, s.Len())
}

func TestAttributeStorage(t *testing.T) {
	ctx := newTestContext(t)
	iso := ctx.Isolate()
	s := NewAttributeStorage()

	s.AddAttribute("ro", ctx.NewInteger(7).Value, ReadOnly|DontDelete)
	assert.Equal(t, ReadOnly|DontDelete, s.Attributes("ro"))
	assert.Equal(t, None, s.Attributes("missing"))

	e, err := s.Get("ro")
	require.NoError(t, err)
	assert.EqualValues(t, 7, e.Value.Int64())

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	assert.True(t, s.Remove("ro"))
	assert.True(t, e.Value.IsEmpty())
	assert.Zero(t, iso.Stats().LivePersistents)

	s.AddAttribute("again", ctx.Null(), None)
	s.Dispose()
	assert.Zero(t, iso.Stats().LivePersistents)
	assert.NotNil(t, usageError(func() { s.AddAttribute("x", ctx.Null(), None) }))
}
