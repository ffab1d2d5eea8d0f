package channel

import (
	"path/filepath"
	"sync"
	"testing"

	"chat-server/internal/membership"
	"chat-server/internal/storage"
	"chat-server/pkg/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorded struct {
	method string
	target string
	event  string
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recordingBroadcaster) record(method, target, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorded{method, target, event})
}

func (r *recordingBroadcaster) SendTo(connID, event string, payload any) {
	r.record("to", connID, event)
}

func (r *recordingBroadcaster) SendToRoom(roomID, event string, payload any, exclude ...string) {
	r.record("room", roomID, event)
}

func (r *recordingBroadcaster) SendToUser(userID, event string, payload any) {
	r.record("user", userID, event)
}

func (r *recordingBroadcaster) SendToAll(event string, payload any, exclude ...string) {
	r.record("all", "", event)
}

func (r *recordingBroadcaster) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recorded, len(r.calls))
	copy(out, r.calls)
	return out
}

type fixture struct {
	db          *gorm.DB
	members     *membership.Service
	svc         *Service
	broadcaster *recordingBroadcaster
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	members := membership.NewService(db)
	broadcaster := &recordingBroadcaster{}
	return &fixture{
		db:          db,
		members:     members,
		svc:         NewService(db, members, broadcaster),
		broadcaster: broadcaster,
	}
}

func (f *fixture) createUser(t *testing.T, username string) *chat.User {
	t.Helper()
	u := &chat.User{Username: username, Password: "hashed"}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func TestCreate_PublicAnnouncesToAll(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")

	ch, err := f.svc.Create(alice.ID, "general", false)
	require.NoError(t, err)
	assert.NotEmpty(t, ch.ID)

	// Creator is enrolled as owner.
	m, err := f.members.GetMembership(alice.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleOwner, m.Role)

	calls := f.broadcaster.all()
	require.Len(t, calls, 1)
	assert.Equal(t, recorded{"all", "", chat.EventChannelCreated}, calls[0])
}

func TestCreate_PrivateStaysQuiet(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")

	_, err := f.svc.Create(alice.ID, "staff", true)
	require.NoError(t, err)
	assert.Empty(t, f.broadcaster.all())
}

func TestCreate_DuplicateName(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")

	_, err := f.svc.Create(alice.ID, "general", false)
	require.NoError(t, err)
	_, err = f.svc.Create(alice.ID, "general", false)
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	public, err := f.svc.Create(alice.ID, "general", false)
	require.NoError(t, err)
	private, err := f.svc.Create(alice.ID, "staff", true)
	require.NoError(t, err)

	require.NoError(t, f.svc.Join(bob.ID, public.ID))
	assert.ErrorIs(t, f.svc.Join(bob.ID, public.ID), ErrAlreadyMember)
	assert.ErrorIs(t, f.svc.Join(bob.ID, private.ID), membership.ErrNotMember)
	assert.ErrorIs(t, f.svc.Join(bob.ID, "missing"), ErrNotFound)
}

func TestInvite_NotifiesTarget(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	private, err := f.svc.Create(alice.ID, "staff", true)
	require.NoError(t, err)

	require.NoError(t, f.svc.Invite(alice.ID, bob.ID, private.ID))

	ok, err := f.members.IsMember(bob.ID, private.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	calls := f.broadcaster.all()
	require.Len(t, calls, 1)
	assert.Equal(t, recorded{"user", bob.ID, chat.EventChannelInvited}, calls[0])
}

func TestInvite_OnlyOwner(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")

	private, err := f.svc.Create(alice.ID, "staff", true)
	require.NoError(t, err)
	require.NoError(t, f.svc.Invite(alice.ID, bob.ID, private.ID))

	err = f.svc.Invite(bob.ID, carol.ID, private.ID)
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestLeave(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	ch, err := f.svc.Create(alice.ID, "general", false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Join(bob.ID, ch.ID))

	require.NoError(t, f.svc.Leave(bob.ID, ch.ID))
	assert.ErrorIs(t, f.svc.Leave(alice.ID, ch.ID), ErrOwnerLeaving)
}

func TestUserChannels(t *testing.T) {
	f := setup(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	general, err := f.svc.Create(alice.ID, "general", false)
	require.NoError(t, err)
	_, err = f.svc.Create(alice.ID, "alice-only", true)
	require.NoError(t, err)
	require.NoError(t, f.svc.Join(bob.ID, general.ID))

	channels, err := f.svc.UserChannels(bob.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "general", channels[0].Name)
}
