package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createChannel(t *testing.T, f *apiFixture, token, name string, private bool) ChannelInfo {
	t.Helper()
	w := f.request(t, http.MethodPost, "/api/channels", token, CreateChannelInput{Name: name, IsPrivate: private})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody[ChannelInfo](t, w)
}

func TestCreateChannel(t *testing.T) {
	f := setupAPI(t)
	ownerID, token := f.newUser(t, "alice")

	ch := createChannel(t, f, token, "general", false)
	assert.NotEmpty(t, ch.ID)
	assert.Equal(t, "general", ch.Name)
	assert.Equal(t, ownerID, ch.OwnerID)
	assert.False(t, ch.IsPrivate)

	// The owner is a member immediately.
	w := f.request(t, http.MethodGet, "/api/channels/mine", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decodeBody[[]ChannelInfo](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, ch.ID, mine[0].ID)
}

func TestListChannels_OnlyPublic(t *testing.T) {
	f := setupAPI(t)
	_, token := f.newUser(t, "alice")
	createChannel(t, f, token, "public-room", false)
	createChannel(t, f, token, "secret-room", true)

	w := f.request(t, http.MethodGet, "/api/channels", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	channels := decodeBody[[]ChannelInfo](t, w)
	require.Len(t, channels, 1)
	assert.Equal(t, "public-room", channels[0].Name)
}

func TestJoinChannel(t *testing.T) {
	f := setupAPI(t)
	_, ownerToken := f.newUser(t, "alice")
	_, bobToken := f.newUser(t, "bob")

	public := createChannel(t, f, ownerToken, "general", false)
	private := createChannel(t, f, ownerToken, "staff", true)

	w := f.request(t, http.MethodPost, "/api/channels/"+public.ID+"/join", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Joining twice conflicts.
	w = f.request(t, http.MethodPost, "/api/channels/"+public.ID+"/join", bobToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Private channels are invite-only.
	w = f.request(t, http.MethodPost, "/api/channels/"+private.ID+"/join", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, http.MethodPost, "/api/channels/nope/join", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvite(t *testing.T) {
	f := setupAPI(t)
	_, ownerToken := f.newUser(t, "alice")
	bobID, bobToken := f.newUser(t, "bob")
	charlieID, _ := f.newUser(t, "charlie")

	private := createChannel(t, f, ownerToken, "staff", true)

	w := f.request(t, http.MethodPost, "/api/channels/"+private.ID+"/invite", ownerToken, InviteInput{UserID: bobID})
	assert.Equal(t, http.StatusOK, w.Code)

	// The invitee is now a member.
	w = f.request(t, http.MethodGet, "/api/channels/mine", bobToken, nil)
	mine := decodeBody[[]ChannelInfo](t, w)
	require.Len(t, mine, 1)

	// Non-owners cannot invite.
	w = f.request(t, http.MethodPost, "/api/channels/"+private.ID+"/invite", bobToken, InviteInput{UserID: charlieID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLeaveChannel(t *testing.T) {
	f := setupAPI(t)
	_, ownerToken := f.newUser(t, "alice")
	_, bobToken := f.newUser(t, "bob")

	ch := createChannel(t, f, ownerToken, "general", false)
	f.request(t, http.MethodPost, "/api/channels/"+ch.ID+"/join", bobToken, nil)

	w := f.request(t, http.MethodPost, "/api/channels/"+ch.ID+"/leave", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The owner cannot abandon the channel.
	w = f.request(t, http.MethodPost, "/api/channels/"+ch.ID+"/leave", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChannelMembers(t *testing.T) {
	f := setupAPI(t)
	_, ownerToken := f.newUser(t, "alice")
	_, bobToken := f.newUser(t, "bob")
	_, strangerToken := f.newUser(t, "mallory")

	ch := createChannel(t, f, ownerToken, "general", false)
	f.request(t, http.MethodPost, "/api/channels/"+ch.ID+"/join", bobToken, nil)

	w := f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/members", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decodeBody[[]UserInfo](t, w)
	assert.Len(t, members, 2)

	// Outsiders cannot enumerate members.
	w = f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/members", strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
