package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, float64(7), params["offset"])
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":8,"message":{"message_id":1,"chat":{"id":-100},"text":"hi"}}
		]}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("TOKEN", server.URL)
	updates, err := c.GetUpdates(context.Background(), 7, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(8), updates[0].UpdateID)
	assert.Equal(t, "hi", updates[0].Message.Text)
	assert.Equal(t, int64(-100), updates[0].Message.Chat.ID)
}

func TestSendReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, float64(-100), params["chat_id"])
		assert.Equal(t, float64(5), params["reply_to_message_id"])
		assert.Equal(t, "hello", params["text"])
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":6,"chat":{"id":-100},"text":"hello"}}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("TOKEN", server.URL)
	msg, err := c.SendReply(context.Background(), -100, 5, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(6), msg.MessageID)
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("BAD", server.URL)
	_, err := c.GetMe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestTextContent(t *testing.T) {
	assert.Equal(t, "words", (&Message{Text: "words"}).TextContent())
	assert.Equal(t, "caption", (&Message{Caption: "caption"}).TextContent())
}

func TestEntityText(t *testing.T) {
	text := "/msg @alice seed"
	cmd := MessageEntity{Type: EntityBotCommand, Offset: 0, Length: 4}
	mention := MessageEntity{Type: EntityMention, Offset: 5, Length: 6}

	assert.Equal(t, "/msg", EntityText(text, cmd))
	assert.Equal(t, "@alice", EntityText(text, mention))
	assert.Equal(t, " seed", TextAfterEntity(text, mention))
}

func TestEntityTextUTF16Offsets(t *testing.T) {
	// The emoji occupies two UTF-16 code units, so the mention offset is
	// shifted relative to the rune index.
	text := "😀 @bob hi"
	mention := MessageEntity{Type: EntityMention, Offset: 3, Length: 4}
	assert.Equal(t, "@bob", EntityText(text, mention))
	assert.Equal(t, " hi", TextAfterEntity(text, mention))
}

func TestEntityTextOutOfRange(t *testing.T) {
	assert.Equal(t, "", EntityText("short", MessageEntity{Offset: 3, Length: 10}))
	assert.Equal(t, "", TextAfterEntity("short", MessageEntity{Offset: 10, Length: 10}))
}
