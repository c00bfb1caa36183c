package hearsay

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hearsaybot/hearsay/internal/importer"
	"github.com/hearsaybot/hearsay/internal/storage"
)

// ImportResult summarizes one bulk import.
type ImportResult struct {
	// BatchID identifies this import in the ledger. Empty when the file
	// was skipped.
	BatchID string

	// ChatID is the chat the messages were trained into.
	ChatID int64

	// Messages is the number of qualifying messages trained.
	Messages int

	// Skipped is true when the file's checksum was already in the ledger.
	Skipped bool
}

// ImportFile trains the chains of a chat from a Telegram export file, one
// Trainer application per qualifying message in the order given. JSON
// exports carry their own chat ID; chatID overrides it and is required for
// HTML exports. A file whose checksum was imported before is skipped.
func (s *Service) ImportFile(ctx context.Context, path string, chatID int64) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	checksum := fmt.Sprintf("%x", md5.Sum(data))

	seen, err := s.store.ImportSeen(ctx, checksum)
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	if seen {
		slog.Info("export already imported, skipping", "path", path, "checksum", checksum)
		return &ImportResult{Skipped: true}, nil
	}

	export, err := importer.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}

	target := export.ChatID
	if chatID != 0 {
		target = chatID
	}
	if target == 0 {
		return nil, fmt.Errorf("hearsay: export carries no chat ID; pass one explicitly")
	}

	err = s.store.UpdateChat(ctx, target, func(doc *storage.ChatDocument) error {
		for _, m := range export.Messages {
			owner := m.OwnerID
			if owner == "" {
				// HTML exports have no stable sender IDs; the history
				// still enriches the aggregate chain.
				owner = storage.AllOwner
			}
			doc.TrainMessage(owner, m.Text)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}

	result := &ImportResult{
		BatchID:  uuid.NewString(),
		ChatID:   target,
		Messages: len(export.Messages),
	}
	record := storage.ImportRecord{
		BatchID:    result.BatchID,
		ImportedAt: time.Now().UTC(),
		Messages:   result.Messages,
	}
	if err := s.store.RecordImport(ctx, checksum, record); err != nil {
		return nil, fmt.Errorf("hearsay: %w", err)
	}
	slog.Info("export imported", "path", path, "chat", target, "messages", result.Messages, "batch", result.BatchID)
	return result, nil
}
