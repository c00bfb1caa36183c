// Package importer parses Telegram chat-export files into the messages
// worth training on.
//
// JSON exports (result.json) carry stable sender IDs, so their messages
// can be attributed to per-user chains. HTML exports (messages.html) only
// carry display names; their messages train the aggregate chain alone.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Export is a parsed chat export: the chat it came from and the qualifying
// messages in their original order.
type Export struct {
	// ChatID is the API-side chat ID. Zero for HTML exports, which do not
	// record it; callers must supply the chat themselves.
	ChatID int64

	Messages []Message
}

// Message is one qualifying historical message. OwnerID is empty when the
// export format carries no stable sender ID.
type Message struct {
	OwnerID string
	Text    string
}

// Parse dispatches on the file extension: .json for Telegram Desktop
// result.json exports, .html for messages.html exports.
func Parse(path string, data []byte) (*Export, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".html", ".htm":
		return ParseHTML(data)
	}
	return nil, fmt.Errorf("unsupported export file %q: want .json or .html", filepath.Base(path))
}

// qualifies reports whether a message text should be trained on: non-empty
// and not a bot command.
func qualifies(text string) bool {
	return text != "" && !strings.HasPrefix(text, "/")
}

// jsonExport mirrors the layout of result.json.
type jsonExport struct {
	ID       int64         `json:"id"`
	Type     string        `json:"type"`
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	FromID string          `json:"from_id"`
	Text   json.RawMessage `json:"text"`
}

// ParseJSON reads a Telegram Desktop JSON export. Only messages from user
// or channel senders qualify; automated senders and command messages are
// dropped. The export's chat ID is rewritten to match what the Bot API
// reports: private groups are negated, private supergroups gain a -100
// prefix.
func ParseJSON(data []byte) (*Export, error) {
	var raw jsonExport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse JSON export: %w", err)
	}

	chatID, err := apiChatID(raw.ID, raw.Type)
	if err != nil {
		return nil, err
	}

	export := &Export{ChatID: chatID}
	for _, m := range raw.Messages {
		ownerID, ok := senderID(m.FromID)
		if !ok {
			continue
		}
		text := flattenText(m.Text)
		if !qualifies(text) {
			continue
		}
		export.Messages = append(export.Messages, Message{OwnerID: ownerID, Text: text})
	}
	return export, nil
}

// apiChatID converts an export-file chat ID into the ID the Bot API uses
// for the same chat.
func apiChatID(id int64, chatType string) (int64, error) {
	switch chatType {
	case "private_group":
		return -id, nil
	case "private_supergroup":
		fixed, err := strconv.ParseInt("-100"+strconv.FormatInt(id, 10), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("supergroup chat ID %d out of range", id)
		}
		return fixed, nil
	}
	return 0, fmt.Errorf("unsupported chat type %q", chatType)
}

// senderID strips the kind prefix from an export sender ID, keeping only
// user and channel senders.
func senderID(fromID string) (string, bool) {
	if id, ok := strings.CutPrefix(fromID, "user"); ok {
		return id, true
	}
	if id, ok := strings.CutPrefix(fromID, "channel"); ok {
		return id, true
	}
	return "", false
}

// flattenText renders the export's text field, which is either a plain
// string or a list of plain strings and entity objects.
func flattenText(raw json.RawMessage) string {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var pieces []json.RawMessage
	if err := json.Unmarshal(raw, &pieces); err != nil {
		return ""
	}
	parts := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		var s string
		if err := json.Unmarshal(piece, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(piece, &entity); err == nil {
			parts = append(parts, entity.Text)
		}
	}
	return strings.Join(parts, " ")
}

// ParseHTML reads a Telegram Desktop HTML export (messages.html). The
// format has no chat or sender IDs, so every qualifying message comes back
// unattributed.
func ParseHTML(data []byte) (*Export, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse HTML export: %w", err)
	}

	export := &Export{}
	doc.Find("div.message.default").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Find("div.text").First().Text())
		if !qualifies(text) {
			return
		}
		export.Messages = append(export.Messages, Message{Text: text})
	})
	return export, nil
}
