package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/petanque-system/models"
	"github.com/Dosada05/petanque-system/storage"
)

// DrawArchiver copies draw logs to long-term storage.
type DrawArchiver interface {
	Archive(ctx context.Context, log *models.DrawLog) (string, error)
}

type storageDrawArchiver struct {
	store storage.ObjectStore
}

func NewStorageDrawArchiver(store storage.ObjectStore) DrawArchiver {
	return &storageDrawArchiver{store: store}
}

func DrawArchiveKey(log *models.DrawLog) string {
	return fmt.Sprintf("draws/%s/%s-%03d-%s.json", log.TournamentID, log.Kind, log.Round, log.ID)
}

func (a *storageDrawArchiver) Archive(ctx context.Context, log *models.DrawLog) (string, error) {
	body, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode draw log %s: %w", log.ID, err)
	}
	key := DrawArchiveKey(log)
	if _, err := a.store.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", err
	}
	return key, nil
}
