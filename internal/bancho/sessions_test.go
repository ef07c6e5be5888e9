package bancho

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func newTestSession(id int32, name, token string) *model.Session {
	return &model.Session{
		ID:       id,
		Name:     name,
		SafeName: model.MakeSafeName(name),
		Token:    token,
		Priv:     constants.PrivUnrestricted,
		Friends:  make(map[int32]struct{}),
		Blocks:   make(map[int32]struct{}),
	}
}

func TestSessionManager_Lookup(t *testing.T) {
	sm := NewSessionManager()
	s := newTestSession(1001, "Cool Player", "tok-1")
	sm.Register(s)

	assert.Same(t, s, sm.GetByToken("tok-1"))
	assert.Same(t, s, sm.GetByID(1001))
	assert.Same(t, s, sm.GetByName("cool player"))
	assert.Same(t, s, sm.GetByName("COOL PLAYER"))
	assert.Nil(t, sm.GetByToken("other"))
	assert.Equal(t, 1, sm.Len())
}

func TestSessionManager_UnregisterGhostSafe(t *testing.T) {
	sm := NewSessionManager()
	old := newTestSession(1001, "player", "tok-old")
	sm.Register(old)

	// Ghost takeover: the new session replaces the old one's indexes.
	replacement := newTestSession(1001, "player", "tok-new")
	sm.Register(replacement)

	// Unregistering the stale session must not evict the replacement.
	assert.False(t, sm.Unregister(old))
	assert.Same(t, replacement, sm.GetByID(1001))

	assert.True(t, sm.Unregister(replacement))
	assert.Nil(t, sm.GetByID(1001))
	assert.Equal(t, 0, sm.Len())
}

func TestSessionManager_EnqueueUnrestricted(t *testing.T) {
	sm := NewSessionManager()
	a := newTestSession(1, "a", "tok-a")
	b := newTestSession(2, "b", "tok-b")
	restricted := newTestSession(3, "c", "tok-c")
	restricted.Priv = constants.Privileges(0)
	sm.Register(a)
	sm.Register(b)
	sm.Register(restricted)

	sm.EnqueueUnrestricted([]byte{1, 2, 3}, b.ID)

	assert.Equal(t, 3, a.QueueLen())
	assert.Equal(t, 0, b.QueueLen(), "skipped id must not receive")
	assert.Equal(t, 0, restricted.QueueLen(), "restricted players are invisible")
}

func TestSessionManager_Unrestricted(t *testing.T) {
	sm := NewSessionManager()
	a := newTestSession(1, "a", "tok-a")
	restricted := newTestSession(2, "b", "tok-b")
	restricted.Priv = constants.Privileges(0)
	sm.Register(a)
	sm.Register(restricted)

	vis := sm.Unrestricted()
	require.Len(t, vis, 1)
	assert.Same(t, a, vis[0])
}
