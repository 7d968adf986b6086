package fleet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	saved []Session
	err   error
}

func (s *recordingStore) SaveSession(sess Session) error {
	s.saved = append(s.saved, sess)
	return s.err
}

func newTestRegistry(pool []ProxySlot) *Registry {
	return NewRegistry(pool, nil, nil, nil)
}

func TestRegistryAddAssignsPositionAndSegment(t *testing.T) {
	reg := newTestRegistry(nil)

	s1, err := reg.Add("alice01", 7, ModeMail)
	require.NoError(t, err)
	s2, err := reg.Add("bella02", 7, ModeChat)
	require.NoError(t, err)

	assert.NotEmpty(t, s1.ID)
	assert.Equal(t, 1, s1.Position)
	assert.Equal(t, 2, s2.Position)
	assert.Equal(t, SegmentPayers, s1.Segment)
	assert.Equal(t, ModeChat, s2.Mode)
}

func TestRegistryAddRejectsDuplicateDisplayID(t *testing.T) {
	reg := newTestRegistry(nil)

	_, err := reg.Add("alice01", 1, ModeMail)
	require.NoError(t, err)

	_, err = reg.Add("alice01", 2, ModeMail)
	assert.True(t, errors.Is(err, ErrSessionExists))
}

func TestRegistryRemoveRebandsPositions(t *testing.T) {
	pool := testPool(2)
	reg := newTestRegistry(pool)

	var ids []string
	for i := 0; i < 30; i++ {
		s, err := reg.Add(fmt.Sprintf("profile%02d", i), 1, ModeMail)
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	// session 26 sits in the second band before removal
	assert.Equal(t, &pool[1], reg.ProxyFor(ids[25]))

	// removing an earlier session shifts everyone after it down one
	require.NoError(t, reg.Remove(ids[0]))
	assert.Equal(t, &pool[0], reg.ProxyFor(ids[25]))

	got, err := reg.Get(ids[25])
	require.NoError(t, err)
	assert.Equal(t, 25, got.Position)
}

func TestRegistryRemoveUnknown(t *testing.T) {
	reg := newTestRegistry(nil)
	assert.True(t, errors.Is(reg.Remove("nope"), ErrSessionNotFound))
}

func TestRegistrySnapshotIDsIsStableCopy(t *testing.T) {
	reg := newTestRegistry(nil)

	s1, _ := reg.Add("a", 1, ModeMail)
	s2, _ := reg.Add("b", 1, ModeMail)

	snap := reg.SnapshotIDs()
	require.Equal(t, []string{s1.ID, s2.ID}, snap)

	// mutating the registry must not touch the snapshot
	require.NoError(t, reg.Remove(s1.ID))
	assert.Equal(t, []string{s1.ID, s2.ID}, snap)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryMarkAndClearAIUsed(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)

	require.NoError(t, reg.MarkAIUsed(s.ID, "draft text"))
	got, _ := reg.Get(s.ID)
	assert.True(t, got.UsedAI)
	assert.Equal(t, "draft text", got.Draft)

	require.NoError(t, reg.ClearAIUsed(s.ID))
	got, _ = reg.Get(s.ID)
	assert.False(t, got.UsedAI)
	assert.Empty(t, got.Draft)
}

func TestRegistryAdvanceSegmentRespectsDisabled(t *testing.T) {
	disabled := map[string]bool{SegmentInbox: true}
	reg := NewRegistry(nil, nil, disabled, nil)
	s, _ := reg.Add("a", 1, ModeMail)

	next, err := reg.AdvanceSegment(s.ID)
	require.NoError(t, err)
	assert.Equal(t, SegmentFavoritesMine, next)

	// keeps walking and parks on online
	reg.AdvanceSegment(s.ID)
	next, _ = reg.AdvanceSegment(s.ID)
	assert.Equal(t, SegmentOnline, next)
	next, _ = reg.AdvanceSegment(s.ID)
	assert.Equal(t, SegmentOnline, next)
}

func TestRegistrySavesOnChange(t *testing.T) {
	store := &recordingStore{}
	reg := NewRegistry(nil, nil, nil, store)

	s, _ := reg.Add("a", 1, ModeMail)
	require.NoError(t, reg.SetConnected(s.ID, true))
	require.NoError(t, reg.SetMode(s.ID, ModeChat))

	require.Len(t, store.saved, 3)
	assert.True(t, store.saved[1].Connected)
	assert.Equal(t, ModeChat, store.saved[2].Mode)
}

func TestRegistrySaveErrorIsNotFatal(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}
	reg := NewRegistry(nil, nil, nil, store)

	s, err := reg.Add("a", 1, ModeMail)
	require.NoError(t, err)

	got, err := reg.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.DisplayID)
}

func TestRegistryRestoreKeepsSavedState(t *testing.T) {
	reg := newTestRegistry(nil)

	reg.Restore(Session{ID: "id-1", DisplayID: "a", Segment: SegmentFavorites, UsedAI: true, Draft: "pending"})

	got, err := reg.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, SegmentFavorites, got.Segment)
	assert.True(t, got.UsedAI)
	assert.Equal(t, 1, got.Position)
}

func TestRegistryGetByDisplayID(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("alice01", 1, ModeMail)

	got, err := reg.GetByDisplayID("alice01")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = reg.GetByDisplayID("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}
