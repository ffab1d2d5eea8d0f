package message

import (
	"fmt"
	"path/filepath"
	"testing"

	"chat-server/internal/membership"
	"chat-server/internal/storage"
	"chat-server/pkg/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	members  *membership.Service
	svc      *Service
	alice    *chat.User
	bob      *chat.User
	mallory  *chat.User // never a member
	channel  *chat.Channel
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	members := membership.NewService(db)
	svc := NewService(db, members)

	f := &fixture{db: db, members: members, svc: svc}
	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")
	f.mallory = f.createUser(t, "mallory")

	f.channel = &chat.Channel{Name: "general", OwnerID: f.alice.ID}
	require.NoError(t, db.Create(f.channel).Error)

	_, err = members.AddMember(f.alice.ID, f.channel.ID, chat.RoleOwner)
	require.NoError(t, err)
	_, err = members.AddMember(f.bob.ID, f.channel.ID, chat.RoleMember)
	require.NoError(t, err)

	return f
}

func (f *fixture) createUser(t *testing.T, username string) *chat.User {
	t.Helper()
	u := &chat.User{Username: username, Password: "hashed"}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func TestSend(t *testing.T) {
	f := setup(t)

	view, err := f.svc.Send(f.alice.ID, f.channel.ID, "hello @bob", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, f.channel.ID, view.ChannelID)
	assert.Equal(t, f.alice.ID, view.SenderID)
	assert.Equal(t, "alice", view.SenderUsername)
	assert.Equal(t, "text", view.MessageType)
	assert.Equal(t, []string{"bob"}, view.Mentions)
	assert.False(t, view.Edited)
}

func TestSend_RequiresMembership(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Send(f.mallory.ID, f.channel.ID, "let me in", "", nil)
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestSend_ThreadReply(t *testing.T) {
	f := setup(t)

	parent, err := f.svc.Send(f.alice.ID, f.channel.ID, "parent", "", nil)
	require.NoError(t, err)

	reply, err := f.svc.Send(f.bob.ID, f.channel.ID, "reply", "", &parent.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	// A parent from another channel is rejected.
	other := &chat.Channel{Name: "random", OwnerID: f.alice.ID}
	require.NoError(t, f.db.Create(other).Error)
	_, err = f.members.AddMember(f.alice.ID, other.ID, chat.RoleOwner)
	require.NoError(t, err)

	_, err = f.svc.Send(f.alice.ID, other.ID, "cross-channel reply", "", &parent.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "typo", "", nil)
	require.NoError(t, err)

	edited, err := f.svc.Edit(f.alice.ID, msg.ID, "fixed, thanks @bob")
	require.NoError(t, err)
	assert.Equal(t, "fixed, thanks @bob", edited.Content)
	assert.True(t, edited.Edited)
	assert.Equal(t, []string{"bob"}, edited.Mentions)
}

func TestEdit_OnlySender(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "mine", "", nil)
	require.NoError(t, err)

	_, err = f.svc.Edit(f.bob.ID, msg.ID, "hijacked")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Edit(f.alice.ID, "no-such-id", "whatever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit_AfterLeavingChannel(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.bob.ID, f.channel.ID, "before leaving", "", nil)
	require.NoError(t, err)

	require.NoError(t, f.members.RemoveMember(f.bob.ID, f.channel.ID))

	_, err = f.svc.Edit(f.bob.ID, msg.ID, "after leaving")
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestDelete(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "going away", "", nil)
	require.NoError(t, err)

	channelID, err := f.svc.Delete(f.alice.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, f.channel.ID, channelID)

	// Gone from history and from later lookups.
	views, _, err := f.svc.ChannelMessages(f.alice.ID, f.channel.ID, 50, "")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.svc.Delete(f.alice.ID, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_OnlySender(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "mine", "", nil)
	require.NoError(t, err)

	_, err = f.svc.Delete(f.bob.ID, msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReactions(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "react to this", "", nil)
	require.NoError(t, err)

	view, channelID, err := f.svc.AddReaction(f.bob.ID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, f.channel.ID, channelID)
	assert.Equal(t, "bob", view.Username)
	assert.Equal(t, "👍", view.Emoji)

	// Same user, same emoji, same message is a conflict.
	_, _, err = f.svc.AddReaction(f.bob.ID, msg.ID, "👍")
	assert.Error(t, err)

	channelID, err = f.svc.RemoveReaction(f.bob.ID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, f.channel.ID, channelID)

	_, err = f.svc.RemoveReaction(f.bob.ID, msg.ID, "👍")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactions_RequireMembership(t *testing.T) {
	f := setup(t)

	msg, err := f.svc.Send(f.alice.ID, f.channel.ID, "members only", "", nil)
	require.NoError(t, err)

	_, _, err = f.svc.AddReaction(f.mallory.ID, msg.ID, "👀")
	assert.ErrorIs(t, err, membership.ErrNotMember)

	// Leaving the channel revokes removal too, even of one's own reaction.
	_, _, err = f.svc.AddReaction(f.bob.ID, msg.ID, "👍")
	require.NoError(t, err)
	require.NoError(t, f.members.RemoveMember(f.bob.ID, f.channel.ID))

	_, err = f.svc.RemoveReaction(f.bob.ID, msg.ID, "👍")
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestChannelMessages_LimitClamp(t *testing.T) {
	f := setup(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Send(f.alice.ID, f.channel.ID, fmt.Sprintf("m%d", i), "", nil)
		require.NoError(t, err)
	}

	views, hasMore, err := f.svc.ChannelMessages(f.alice.ID, f.channel.ID, -5, "")
	require.NoError(t, err)
	assert.Len(t, views, 3)
	assert.False(t, hasMore)

	views, hasMore, err = f.svc.ChannelMessages(f.alice.ID, f.channel.ID, 2, "")
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.True(t, hasMore)
}

func TestExtractMentions(t *testing.T) {
	assert.Equal(t, []string{"bob", "carol"}, extractMentions("hey @bob and @carol, lunch?"))
	assert.Empty(t, extractMentions("no mentions here"))
	assert.Empty(t, extractMentions("emails like a@b.c do not count"))
}
