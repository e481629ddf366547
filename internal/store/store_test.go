package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionBarrier(t *testing.T) {
	t.Run("add before seal succeeds in any order", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Add("b.html", []byte("<b>")))
		require.NoError(t, s.Add("a.html", []byte("<a>")))
		assert.Equal(t, []string{"a.html", "b.html"}, s.URLs())
	})

	t.Run("add after seal fails", func(t *testing.T) {
		s := New()
		s.Seal()
		err := s.Add("late.html", []byte("x"))
		assert.ErrorIs(t, err, ErrSealed)
	})

	t.Run("build requires sealed store", func(t *testing.T) {
		s := New()
		assert.ErrorIs(t, s.BeginBuild(), ErrNotSealed)
		s.Seal()
		require.NoError(t, s.BeginBuild())
	})

	t.Run("second build is rejected while one runs", func(t *testing.T) {
		s := New()
		s.Seal()
		require.NoError(t, s.BeginBuild())
		assert.ErrorIs(t, s.BeginBuild(), ErrBuildInProgress)
		s.EndBuild()
		require.NoError(t, s.BeginBuild())
	})
}

func TestDiscard(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("a.html", []byte("x")))
	s.Seal()
	s.Discard()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Sealed())
	require.NoError(t, s.Add("a.html", []byte("y")), "discarded store reopens")
}

func TestProvenanceLifecycle(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("index.html", []byte("original")))
	require.NoError(t, s.Add("frag.html", []byte("fragment")))
	s.Seal()

	e, ok := s.Get("index.html")
	require.True(t, ok)
	assert.Equal(t, ProvenanceOriginal, e.Provenance)

	// Reconciliation: member deleted, canonical replaced in place.
	s.Delete("frag.html")
	s.Put("index.html", []byte("merged"), ProvenanceBundled)

	assert.False(t, s.Has("frag.html"))
	e, ok = s.Get("index.html")
	require.True(t, ok)
	assert.Equal(t, ProvenanceBundled, e.Provenance)
	assert.Equal(t, "merged", string(e.Content))
}

func TestAddOverwritesSameURL(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("a.html", []byte("first")))
	require.NoError(t, s.Add("a.html", []byte("second")))
	e, _ := s.Get("a.html")
	assert.Equal(t, "second", string(e.Content))
	assert.Equal(t, 1, s.Len())
}
