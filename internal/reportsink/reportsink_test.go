package reportsink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetRoundTrips(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	ctx := context.Background()
	key := Key("01ARZ3NDEKTSV4RRFFQ69G5FAV", "deploy.sh", "json")

	require.NoError(t, s.Put(ctx, key, []byte(`{"ok":true}`)))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got))
}

func TestLocalStorage_GetMissingKeyErrors(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	_, err := s.Get(context.Background(), Key("missing-run", "a.sh", "json"))
	assert.Error(t, err)
}

func TestKey_GroupsByRunID(t *testing.T) {
	a := Key("run1", "a.sh", "sarif")
	b := Key("run1", "b.sh", "json")
	assert.Contains(t, a, "run1/")
	assert.Contains(t, b, "run1/")
}
