package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDedupeStore struct {
	contacted map[uint][]string
	sharing   map[uint][]uint
}

func (s *fakeDedupeStore) ContactedAddresses(ownerID uint) ([]string, error) {
	return s.contacted[ownerID], nil
}

func (s *fakeDedupeStore) SharingCollaborators(ownerID uint) ([]uint, error) {
	return s.sharing[ownerID], nil
}

func TestBuildAlreadyContactedIsCaseInsensitive(t *testing.T) {
	store := &fakeDedupeStore{
		contacted: map[uint][]string{1: {"Lee@Example.com", "kim@example.com"}},
	}

	set, err := New(store).BuildAlreadyContacted(1, false)
	require.NoError(t, err)

	assert.True(t, set.Has("lee@example.com"))
	assert.True(t, set.Has("LEE@EXAMPLE.COM"))
	assert.True(t, set.Has("kim@example.com"))
	assert.False(t, set.Has("new@example.com"))
	assert.Equal(t, 2, set.Len())
}

func TestBuildAlreadyContactedUnionsCollaborators(t *testing.T) {
	store := &fakeDedupeStore{
		contacted: map[uint][]string{
			1: {"own@example.com"},
			2: {"shared@example.com"},
			3: {"hidden@example.com"},
		},
		// owner 3 has not opted in, so their contacts stay invisible
		sharing: map[uint][]uint{1: {2}},
	}

	set, err := New(store).BuildAlreadyContacted(1, true)
	require.NoError(t, err)
	assert.True(t, set.Has("own@example.com"))
	assert.True(t, set.Has("shared@example.com"))
	assert.False(t, set.Has("hidden@example.com"))

	set, err = New(store).BuildAlreadyContacted(1, false)
	require.NoError(t, err)
	assert.False(t, set.Has("shared@example.com"))
}

func TestSetTracksIntraBatchAdds(t *testing.T) {
	set := NewSet()
	assert.False(t, set.Has("a@x.com"))
	set.Add("A@X.com")
	assert.True(t, set.Has("a@x.com"))
}
