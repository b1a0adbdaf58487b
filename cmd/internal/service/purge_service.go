package service

import (
	"context"
	"familynotes/cmd/internal/infrastructure/aws/storage"
	"familynotes/cmd/internal/utils/dbctx"
	"fmt"

	"github.com/labstack/gommon/log"
)

// DataPurger is the production ContentPurger: it drops the creator's note
// rows and every stored object under the creator's prefix.
type DataPurger struct {
	NoteRepo NoteRepository
	Store    storage.ObjectStore
}

func NewDataPurger(noteRepo NoteRepository, store storage.ObjectStore) *DataPurger {
	return &DataPurger{NoteRepo: noteRepo, Store: store}
}

func (p *DataPurger) PurgeCreatorData(ctx context.Context, creatorID int64) error {
	// Objects first: a failure then leaves the rows as a record of what is left.
	objects := 0
	if p.Store != nil {
		n, err := p.Store.DeletePrefix(ctx, storage.CreatorPrefix(creatorID))
		if err != nil {
			return fmt.Errorf("delete stored objects: %w", err)
		}
		objects = n
	}

	notes, err := p.NoteRepo.DeleteByCreator(dbctx.Background(ctx), creatorID)
	if err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}

	log.Infof("purged creator %d: %d notes, %d objects", creatorID, notes, objects)
	return nil
}
