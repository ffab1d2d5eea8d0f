package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelMessages_History(t *testing.T) {
	f := setupAPI(t)
	aliceID, token := f.newUser(t, "alice")
	ch := createChannel(t, f, token, "general", false)

	for i := 1; i <= 5; i++ {
		_, err := f.messages.Send(aliceID, ch.ID, fmt.Sprintf("message %d", i), "text", nil)
		require.NoError(t, err)
	}

	w := f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[MessagesResponse](t, w)
	require.Len(t, resp.Messages, 5)
	assert.False(t, resp.HasMore)

	// Oldest first within the page.
	assert.Equal(t, "message 1", resp.Messages[0].Content)
	assert.Equal(t, "message 5", resp.Messages[4].Content)
	assert.Equal(t, "alice", resp.Messages[0].SenderUsername)
}

func TestChannelMessages_Pagination(t *testing.T) {
	f := setupAPI(t)
	aliceID, token := f.newUser(t, "alice")
	ch := createChannel(t, f, token, "general", false)

	for i := 1; i <= 7; i++ {
		_, err := f.messages.Send(aliceID, ch.ID, fmt.Sprintf("message %d", i), "text", nil)
		require.NoError(t, err)
	}

	w := f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/messages?limit=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody[MessagesResponse](t, w)
	require.Len(t, page.Messages, 3)
	assert.True(t, page.HasMore)
	assert.Equal(t, "message 5", page.Messages[0].Content)
	assert.Equal(t, "message 7", page.Messages[2].Content)

	// The next page is everything older than the first page's oldest row.
	before := page.Messages[0].ID
	w = f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/messages?limit=3&before="+before, token, nil)
	page = decodeBody[MessagesResponse](t, w)
	require.Len(t, page.Messages, 3)
	assert.True(t, page.HasMore)
	assert.Equal(t, "message 2", page.Messages[0].Content)
	assert.Equal(t, "message 4", page.Messages[2].Content)
}

func TestChannelMessages_MembersOnly(t *testing.T) {
	f := setupAPI(t)
	aliceID, aliceToken := f.newUser(t, "alice")
	_, malloryToken := f.newUser(t, "mallory")
	ch := createChannel(t, f, aliceToken, "general", false)

	_, err := f.messages.Send(aliceID, ch.ID, "members only", "text", nil)
	require.NoError(t, err)

	w := f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/messages", malloryToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchMessages(t *testing.T) {
	f := setupAPI(t)
	aliceID, token := f.newUser(t, "alice")
	_, malloryToken := f.newUser(t, "mallory")
	ch := createChannel(t, f, token, "general", false)

	for _, content := range []string{"deploy is done", "lunch anyone?", "deploy failed again"} {
		_, err := f.messages.Send(aliceID, ch.ID, content, "text", nil)
		require.NoError(t, err)
	}

	w := f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/search?q=deploy", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody[[]SearchResult](t, w)
	assert.Len(t, results, 2)

	// Term is mandatory.
	w = f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Search respects membership.
	w = f.request(t, http.MethodGet, "/api/channels/"+ch.ID+"/search?q=deploy", malloryToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
