package telegram

import "unicode/utf16"

// Update is one item from getUpdates. Only message updates matter here.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming or sent chat message.
type Message struct {
	MessageID      int64           `json:"message_id"`
	From           *User           `json:"from"`
	Chat           Chat            `json:"chat"`
	Text           string          `json:"text"`
	Caption        string          `json:"caption"`
	Entities       []MessageEntity `json:"entities"`
	ReplyToMessage *Message        `json:"reply_to_message"`
}

// TextContent returns the trainable text of a message: its text, or the
// caption when the message is media.
func (m *Message) TextContent() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// User is a Telegram account.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Entity types the bot cares about.
const (
	EntityBotCommand  = "bot_command"
	EntityMention     = "mention"
	EntityTextMention = "text_mention"
)

// MessageEntity marks a span of special text inside a message. Offsets and
// lengths count UTF-16 code units, per the Bot API.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	User   *User  `json:"user,omitempty"`
}

// EntityText extracts the substring an entity covers.
func EntityText(text string, e MessageEntity) string {
	units := utf16.Encode([]rune(text))
	if e.Offset < 0 || e.Length < 0 || e.Offset+e.Length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[e.Offset : e.Offset+e.Length]))
}

// TextAfterEntity returns everything following an entity's span.
func TextAfterEntity(text string, e MessageEntity) string {
	units := utf16.Encode([]rune(text))
	end := e.Offset + e.Length
	if end < 0 || end > len(units) {
		return ""
	}
	return string(utf16.Decode(units[end:]))
}
