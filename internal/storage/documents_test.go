package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

func TestStoreAndFetchRoundTrip(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Store([]byte("certificate body"), "bonafide.pdf")
	require.NoError(t, err)
	assert.Contains(t, ref, "bonafide_")
	assert.Contains(t, ref, ".pdf")

	data, err := store.Fetch(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("certificate body"), data)
}

func TestStoreDistinguishesSameFilename(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Store([]byte("one"), "form.pdf")
	require.NoError(t, err)
	second, err := store.Store([]byte("two"), "form.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFetchRejectsTraversal(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "../secret", "a/../../b", "sub/dir.pdf"} {
		_, err := store.Fetch(ref)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "ref %q", ref)
	}
}

func TestFetchUnknownRef(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Fetch("missing.pdf")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
