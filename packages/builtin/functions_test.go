package builtin

import (
	"encoding/hex"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateStringIn(t *testing.T) {
	tests := []struct {
		name     string
		parts    []int
		expected string
	}{
		{"defaults", nil, "2000-01-01T00:00:00.000Z"},
		{"zeros take defaults", []int{0, 0, 0}, "2000-01-01T00:00:00.000Z"},
		{"full date", []int{2016, 3, 14, 15, 9, 26, 535}, "2016-03-14T15:09:26.535Z"},
		{"month only", []int{2016, 12}, "2016-12-01T00:00:00.000Z"},
		{"two digit year", []int{99, 6, 1}, "1999-06-01T00:00:00.000Z"},
		{"rolls over", []int{2016, 13, 1}, "2017-01-01T00:00:00.000Z"},
		{"extra parts ignored", []int{2016, 1, 1, 0, 0, 0, 0, 42}, "2016-01-01T00:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DateStringIn(time.UTC, tt.parts...))
		})
	}
}

func TestDateString_ConvertsLocalToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "2015-12-31T22:00:00.000Z", DateStringIn(loc, 2016))

	expected := time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local).UTC().Format(ISOLayout)
	assert.Equal(t, expected, DateString())
}

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	t.Run("isoDate", func(t *testing.T) {
		v, ok := r.Call("isoDate(2016, 3, 14)")
		require.True(t, ok)
		assert.Equal(t, DateString(2016, 3, 14), v)
	})

	t.Run("uuid", func(t *testing.T) {
		v, ok := r.Call("uuid()")
		require.True(t, ok)
		_, err := uuid.Parse(v.(string))
		assert.NoError(t, err)
	})

	t.Run("case helpers with quotes", func(t *testing.T) {
		v, ok := r.Call(`upper("a, b")`)
		require.True(t, ok)
		assert.Equal(t, "A, B", v)

		v, ok = r.Call("lower(ABC)")
		require.True(t, ok)
		assert.Equal(t, "abc", v)
	})

	t.Run("sha256", func(t *testing.T) {
		v, ok := r.Call("sha256(abc)")
		require.True(t, ok)
		_, err := hex.DecodeString(v.(string))
		assert.NoError(t, err)
		assert.Len(t, v, 64)
	})

	t.Run("timestamp is numeric", func(t *testing.T) {
		v, ok := r.Call("timestamp()")
		require.True(t, ok)
		assert.IsType(t, int64(0), v)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("SHAPESPEC_TEST_VALUE", "yes")
		v, ok := r.Call("env(SHAPESPEC_TEST_VALUE)")
		require.True(t, ok)
		assert.Equal(t, os.Getenv("SHAPESPEC_TEST_VALUE"), v)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, ok := r.Call("nope()")
		assert.False(t, ok)
	})

	t.Run("not a call", func(t *testing.T) {
		_, ok := r.Call("plain")
		assert.False(t, ok)
	})

	t.Run("custom function", func(t *testing.T) {
		r.Register("answer", func(_ []string) any { return 42 })
		assert.True(t, r.Has("answer"))
		v, ok := r.Call("answer()")
		require.True(t, ok)
		assert.Equal(t, 42, v)
	})
}
