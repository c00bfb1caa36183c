// Package hearsay generates chat messages that sound like a chat's users.
//
// It trains one second-order Markov chain per (chat, user) plus an
// aggregate chain per chat, persists everything in an embedded store, and
// produces new messages on demand:
//
//	svc, _ := hearsay.Open("hearsay.db")
//	defer svc.Close()
//	_ = svc.Learn(ctx, chatID, userID, "some message text")
//	text, _ := svc.Mimic(ctx, chatID, userID, markov.GenerateOptions{})
package hearsay

import (
	"context"
	"errors"
	"fmt"

	"github.com/hearsaybot/hearsay/internal/storage"
	"github.com/hearsaybot/hearsay/markov"
)

// AllUsers is the pseudo-owner whose chain aggregates every user in a
// chat.
const AllUsers = storage.AllOwner

// ErrNoData reports that a chat or owner has no trained chain.
var ErrNoData = errors.New("hearsay: no data for owner")

// Service ties the Markov engine to the persistent store. Each call loads
// the affected chat document, works on the in-memory copy, and writes it
// back in one transaction.
type Service struct {
	store *storage.Store
}

// Open opens (or creates) a service backed by a store in the given
// directory.
func Open(path string) (*Service, error) {
	store, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	return &Service{store: store}, nil
}

// OpenInMemory opens a service with no persistence, for tests and
// throwaway runs.
func OpenInMemory() (*Service, error) {
	store, err := storage.OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	return &Service{store: store}, nil
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Learn trains text into the user's chain and the chat's aggregate chain.
func (s *Service) Learn(ctx context.Context, chatID int64, userID, text string) error {
	err := s.store.UpdateChat(ctx, chatID, func(doc *storage.ChatDocument) error {
		doc.TrainMessage(userID, text)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hearsay: %w", err)
	}
	return nil
}

// Mimic generates a message in the voice of the given owner (a user ID or
// AllUsers). Owners with no trained chain yield ErrNoData; generation
// failures surface as the markov package's sentinel errors.
func (s *Service) Mimic(ctx context.Context, chatID int64, owner string, opts markov.GenerateOptions) (string, error) {
	doc, err := s.store.ReadChat(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("hearsay: %w", err)
	}
	if doc == nil {
		return "", ErrNoData
	}
	chain := doc.Chain(owner)
	if chain == nil {
		return "", ErrNoData
	}
	sequence, err := chain.Generate(opts)
	if err != nil {
		return "", err
	}
	return markov.Words(sequence), nil
}

// Forget deletes the user's chain in a chat and subtracts its transitions
// from the aggregate. It reports whether the user had any data.
func (s *Service) Forget(ctx context.Context, chatID int64, userID string) (bool, error) {
	found := false
	err := s.store.UpdateChat(ctx, chatID, func(doc *storage.ChatDocument) error {
		found = doc.DeleteOwner(userID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("hearsay: %w", err)
	}
	return found, nil
}

// RememberUser records a username so later @mentions can resolve to the
// user's stable ID.
func (s *Service) RememberUser(ctx context.Context, username, userID string) error {
	if username == "" {
		return nil
	}
	if err := s.store.RememberUser(ctx, username, userID); err != nil {
		return fmt.Errorf("hearsay: %w", err)
	}
	return nil
}

// ResolveUsername maps an @mention username to a user ID. An unknown
// username reports found=false, not an error.
func (s *Service) ResolveUsername(ctx context.Context, username string) (string, bool, error) {
	id, found, err := s.store.LookupUser(ctx, username)
	if err != nil {
		return "", false, fmt.Errorf("hearsay: %w", err)
	}
	return id, found, nil
}

// Stats summarizes every chat in the store.
func (s *Service) Stats(ctx context.Context) ([]storage.ChatStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	return stats, nil
}
