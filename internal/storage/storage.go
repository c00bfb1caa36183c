// Package storage persists chat documents, user identities, and the
// import ledger in an embedded BadgerDB.
//
// A chat document is read, mutated in memory, and written back as a whole.
// Read-modify-write sequences run inside a single Badger transaction, so
// two concurrent updates to the same chat cannot silently lose one of the
// writes; the loser fails with a conflict and is retried.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hearsaybot/hearsay/markov"
)

// AllOwner is the pseudo-owner whose chain aggregates every user in a chat.
const AllOwner = "all"

const (
	chatKeyPrefix   = "chat/"
	userKeyPrefix   = "user/"
	importKeyPrefix = "import/"
)

// conflictRetries bounds how often a conflicting update is replayed before
// the error surfaces to the caller.
const conflictRetries = 5

// ChatDocument holds every owner's chain for one chat.
type ChatDocument struct {
	ChatID string                   `json:"chat_id"`
	Chains map[string]*markov.Chain `json:"chains"`
}

// NewChatDocument returns an empty document for the given chat.
func NewChatDocument(chatID int64) *ChatDocument {
	return &ChatDocument{
		ChatID: strconv.FormatInt(chatID, 10),
		Chains: make(map[string]*markov.Chain),
	}
}

// Chain returns the owner's chain, or nil if the owner has none.
func (d *ChatDocument) Chain(owner string) *markov.Chain {
	return d.Chains[owner]
}

// chain returns the owner's chain, creating it on first use.
func (d *ChatDocument) chain(owner string) *markov.Chain {
	c := d.Chains[owner]
	if c == nil {
		c = markov.NewChain()
		d.Chains[owner] = c
	}
	return c
}

// TrainMessage adds text to the owner's chain and to the aggregate chain.
func (d *ChatDocument) TrainMessage(owner, text string) {
	d.chain(owner).AddMessage(text)
	if owner != AllOwner {
		d.chain(AllOwner).AddMessage(text)
	}
}

// DeleteOwner removes the owner's chain and subtracts its transitions from
// the aggregate, so the aggregate ends up as if the owner never trained.
// It reports whether the owner had any data.
func (d *ChatDocument) DeleteOwner(owner string) bool {
	c := d.Chains[owner]
	if c == nil {
		return false
	}
	if owner != AllOwner {
		if all := d.Chains[AllOwner]; all != nil {
			all.Subtract(c)
			if all.Empty() {
				delete(d.Chains, AllOwner)
			}
		}
	}
	delete(d.Chains, owner)
	return true
}

// ImportRecord marks one completed bulk import.
type ImportRecord struct {
	BatchID    string    `json:"batch_id"`
	ImportedAt time.Time `json:"imported_at"`
	Messages   int       `json:"messages"`
}

// Store is an embedded document store for the bot's state.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store backed only by memory, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func chatKey(chatID int64) []byte {
	return []byte(chatKeyPrefix + strconv.FormatInt(chatID, 10))
}

// ReadChat loads a chat document. A chat that was never trained returns
// (nil, nil).
func (s *Store) ReadChat(ctx context.Context, chatID int64) (*ChatDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *ChatDocument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(chatID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc = &ChatDocument{}
			return json.Unmarshal(val, doc)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read chat %d: %w", chatID, err)
	}
	slog.Debug("read chat document", "chat", chatID, "found", doc != nil)
	return doc, nil
}

// UpdateChat runs fn against the chat's document inside one transaction
// and writes the result back. A chat without a document gets a fresh one.
// Conflicting concurrent updates are retried against the new state.
func (s *Store) UpdateChat(ctx context.Context, chatID int64, fn func(*ChatDocument) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			doc := NewChatDocument(chatID)
			item, err := txn.Get(chatKey(chatID))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				// First message in this chat; start fresh.
			case err != nil:
				return err
			default:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, doc)
				}); err != nil {
					return err
				}
			}
			if err := fn(doc); err != nil {
				return err
			}
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			return txn.Set(chatKey(chatID), data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < conflictRetries {
			slog.Debug("chat update conflict, retrying", "chat", chatID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return fmt.Errorf("update chat %d: %w", chatID, err)
		}
		return nil
	}
}

// RememberUser records the mapping from a username to the stable user ID,
// replacing any previous record. Usernames are stored lower-cased.
func (s *Store) RememberUser(ctx context.Context, username, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(userKeyPrefix + strings.ToLower(username))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(userID))
	})
	if err != nil {
		return fmt.Errorf("remember user %s: %w", username, err)
	}
	return nil
}

// LookupUser resolves a username to a user ID. An unknown username returns
// ("", false, nil).
func (s *Store) LookupUser(ctx context.Context, username string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	key := []byte(userKeyPrefix + strings.ToLower(username))
	var userID string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("lookup user %s: %w", username, err)
	}
	return userID, found, nil
}

// ImportSeen reports whether an export file with this checksum was already
// imported.
func (s *Store) ImportSeen(ctx context.Context, checksum string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	seen := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(importKeyPrefix + checksum))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		seen = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check import %s: %w", checksum, err)
	}
	return seen, nil
}

// RecordImport marks an export file checksum as imported.
func (s *Store) RecordImport(ctx context.Context, checksum string, record ImportRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("record import %s: %w", checksum, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(importKeyPrefix+checksum), data)
	})
	if err != nil {
		return fmt.Errorf("record import %s: %w", checksum, err)
	}
	return nil
}

// ChatStats summarizes one chat's trained data.
type ChatStats struct {
	ChatID      string
	Owners      int
	Contexts    int
	Transitions markov.Counter
}

// Stats summarizes every chat in the store.
func (s *Store) Stats(ctx context.Context) ([]ChatStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stats []ChatStats
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(chatKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc ChatDocument
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
			st := ChatStats{ChatID: doc.ChatID, Owners: len(doc.Chains)}
			for _, chain := range doc.Chains {
				st.Contexts += chain.Contexts()
				st.Transitions += chain.Transitions()
			}
			stats = append(stats, st)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return stats, nil
}
