// Package bot turns Telegram updates into engine calls: it trains chains
// from ordinary messages, answers /msg and /deletemydata commands, and
// tracks pending confirmation prompts per (chat, user).
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/hearsaybot/hearsay"
	"github.com/hearsaybot/hearsay/internal/telegram"
	"github.com/hearsaybot/hearsay/internal/textutil"
	"github.com/hearsaybot/hearsay/markov"
)

// Canned replies for /msg outcomes.
const (
	replyNoData        = "<no data>"
	replyNoSuchSeed    = "<no such seed>"
	replyTooManySeeds  = "<up to one seed word can be provided>"
	replyInvalidLength = "<invalid length requirement>"
	replyUnmetLength   = "<no message satisfies the length requirement>"
	replyError         = "<an error occurred>"
)

// Confirmation flow for /deletemydata.
const (
	deletePromptText   = "Are you sure you want to delete your Markov chain data in this group?"
	deleteDoneText     = "Your Markov chain data in this group has been deleted."
	deleteNoDataText   = "No data found."
	deleteDeclinedText = "Okay, I won't delete your Markov chain data in this group then."
)

// Sender posts replies back into a chat. *telegram.Client satisfies it;
// tests swap in a recorder.
type Sender interface {
	SendReply(ctx context.Context, chatID, replyToMessageID int64, text string) (*telegram.Message, error)
}

type promptKey struct {
	chatID int64
	userID int64
}

type promptKind int

const promptDeleteMyData promptKind = iota

// prompt is a question the bot asked that awaits a reply to messageID.
type prompt struct {
	messageID int64
	kind      promptKind
}

// Handler dispatches incoming updates. Prompt state lives here, in memory:
// a restart simply forgets unanswered questions.
type Handler struct {
	svc    *hearsay.Service
	sender Sender

	mu      sync.Mutex
	prompts map[promptKey]prompt
}

// New returns a handler backed by the given service and sender.
func New(svc *hearsay.Service, sender Sender) *Handler {
	return &Handler{
		svc:     svc,
		sender:  sender,
		prompts: make(map[promptKey]prompt),
	}
}

// HandleUpdate processes one update from the poll loop.
func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) {
	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	senderID := strconv.FormatInt(msg.From.ID, 10)
	if err := h.svc.RememberUser(ctx, msg.From.Username, senderID); err != nil {
		slog.Error("failed to remember user", "username", msg.From.Username, "error", err)
	}

	text := msg.TextContent()
	if text == "" {
		return
	}

	if kind, ok := h.takePromptFor(msg); ok {
		h.handlePromptResponse(ctx, msg, kind, text)
		return
	}

	if len(msg.Entities) > 0 && msg.Entities[0].Type == telegram.EntityBotCommand {
		command := telegram.EntityText(text, msg.Entities[0])
		// "/msg@somebot" addresses the command explicitly.
		name, _, _ := strings.Cut(strings.TrimPrefix(command, "/"), "@")
		switch name {
		case "msg":
			h.handleMsgCommand(ctx, msg, text)
		case "deletemydata":
			h.handleDeleteMyData(ctx, msg)
		}
		// Commands never feed the chains.
		return
	}

	if err := h.svc.Learn(ctx, msg.Chat.ID, senderID, text); err != nil {
		slog.Error("failed to train message", "chat", msg.Chat.ID, "error", err)
	}
}

// takePromptFor pops the pending prompt the message answers, if any. The
// reply must come from the prompted user and reference the bot's question.
func (h *Handler) takePromptFor(msg *telegram.Message) (promptKind, bool) {
	if msg.ReplyToMessage == nil {
		return 0, false
	}
	key := promptKey{chatID: msg.Chat.ID, userID: msg.From.ID}
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.prompts[key]
	if !ok || p.messageID != msg.ReplyToMessage.MessageID {
		return 0, false
	}
	delete(h.prompts, key)
	return p.kind, true
}

func (h *Handler) handlePromptResponse(ctx context.Context, msg *telegram.Message, kind promptKind, text string) {
	switch kind {
	case promptDeleteMyData:
		if !textutil.IsAffirmative(text) {
			h.reply(ctx, msg, deleteDeclinedText)
			return
		}
		found, err := h.svc.Forget(ctx, msg.Chat.ID, strconv.FormatInt(msg.From.ID, 10))
		if err != nil {
			slog.Error("failed to delete user data", "chat", msg.Chat.ID, "error", err)
			h.reply(ctx, msg, replyError)
			return
		}
		if found {
			h.reply(ctx, msg, deleteDoneText)
		} else {
			h.reply(ctx, msg, deleteNoDataText)
		}
	}
}

func (h *Handler) handleMsgCommand(ctx context.Context, msg *telegram.Message, text string) {
	owner := hearsay.AllUsers
	rest := telegram.TextAfterEntity(text, msg.Entities[0])

	// A mention directly after the command picks whose voice to mimic.
	if len(msg.Entities) > 1 {
		mention := msg.Entities[1]
		switch mention.Type {
		case telegram.EntityMention:
			username := strings.TrimPrefix(telegram.EntityText(text, mention), "@")
			id, found, err := h.svc.ResolveUsername(ctx, username)
			if err != nil {
				slog.Error("failed to resolve username", "username", username, "error", err)
				h.reply(ctx, msg, replyError)
				return
			}
			if !found {
				h.reply(ctx, msg, replyNoData)
				return
			}
			owner = id
			rest = telegram.TextAfterEntity(text, mention)
		case telegram.EntityTextMention:
			if mention.User != nil {
				owner = strconv.FormatInt(mention.User.ID, 10)
				rest = telegram.TextAfterEntity(text, mention)
			}
		}
	}

	opts, errReply := parseMsgArgs(rest)
	if errReply != "" {
		h.reply(ctx, msg, errReply)
		return
	}

	out, err := h.svc.Mimic(ctx, msg.Chat.ID, owner, opts)
	switch {
	case err == nil:
		h.reply(ctx, msg, out)
	case errors.Is(err, hearsay.ErrNoData) || errors.Is(err, markov.ErrEmpty):
		h.reply(ctx, msg, replyNoData)
	case errors.Is(err, markov.ErrNoSuchSeed):
		h.reply(ctx, msg, replyNoSuchSeed)
	case errors.Is(err, markov.ErrLengthRequirementInvalid):
		h.reply(ctx, msg, replyInvalidLength)
	case errors.Is(err, markov.ErrCannotMeetLengthRequirement):
		h.reply(ctx, msg, replyUnmetLength)
	default:
		slog.Error("msg command failed", "chat", msg.Chat.ID, "owner", owner, "error", err)
		h.reply(ctx, msg, replyError)
	}
}

// parseMsgArgs reads the free text after "/msg [@user]": at most one seed
// word plus at most one length requirement, in either order. A non-empty
// errReply names the first problem found.
func parseMsgArgs(rest string) (opts markov.GenerateOptions, errReply string) {
	for _, field := range strings.Fields(rest) {
		if looksLikeLength(field) {
			if opts.Length != nil {
				return opts, replyInvalidLength
			}
			length, err := markov.ParseLengthRequirement(field)
			if err != nil {
				return opts, replyInvalidLength
			}
			opts.Length = length
			continue
		}
		if opts.Seed != "" {
			return opts, replyTooManySeeds
		}
		opts.Seed = field
	}
	return opts, ""
}

// looksLikeLength distinguishes a length-requirement token from a seed
// word: a leading comparison operator, or all digits. "42" is a length,
// never a seed.
func looksLikeLength(field string) bool {
	switch field[0] {
	case '<', '>', '=':
		return true
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (h *Handler) handleDeleteMyData(ctx context.Context, msg *telegram.Message) {
	sent, err := h.sender.SendReply(ctx, msg.Chat.ID, msg.MessageID, deletePromptText)
	if err != nil {
		slog.Error("failed to send confirmation prompt", "chat", msg.Chat.ID, "error", err)
		return
	}
	key := promptKey{chatID: msg.Chat.ID, userID: msg.From.ID}
	h.mu.Lock()
	h.prompts[key] = prompt{messageID: sent.MessageID, kind: promptDeleteMyData}
	h.mu.Unlock()
}

func (h *Handler) reply(ctx context.Context, msg *telegram.Message, text string) {
	if _, err := h.sender.SendReply(ctx, msg.Chat.ID, msg.MessageID, text); err != nil {
		slog.Error("failed to send reply", "chat", msg.Chat.ID, "error", err)
	}
}
