// internal/storage/database/database.go
package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	dbmanager "github.com/skillforge/timeline/internal/database"
	"github.com/skillforge/timeline/internal/model"
	"github.com/skillforge/timeline/internal/model/convert"
	"github.com/skillforge/timeline/pkg/core"
)

// Backend persists skill documents through gorm, using the shared connection
// manager with its Postgres-to-SQLite fallback.
type Backend struct {
	manager *dbmanager.Manager
	log     zerolog.Logger
}

// New creates a database backend
func New(log zerolog.Logger) *Backend {
	return &Backend{
		manager: dbmanager.NewManager(log),
		log:     log,
	}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	if err := b.manager.Connect(); err != nil {
		return err
	}
	return b.manager.Setup()
}

// Close releases the database connection.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// DB exposes the underlying gorm handle for tests.
func (b *Backend) DB() *gorm.DB {
	return b.manager.DB
}

// UseDB injects an already-open gorm handle, bypassing Connect. Intended for
// tests running against in-memory SQLite.
func (b *Backend) UseDB(db *gorm.DB) error {
	b.manager.DB = db
	b.manager.IsValid = true
	return db.AutoMigrate(model.DatabaseModels...)
}

// SaveDocument replaces the stored rows for the document's skill name.
func (b *Backend) SaveDocument(doc *core.Document) error {
	if doc == nil {
		return fmt.Errorf("cannot save nil document")
	}
	if doc.SkillName == "" {
		return fmt.Errorf("cannot save document without a skill name")
	}

	rows, err := convert.ToRows(doc)
	if err != nil {
		return err
	}

	return b.manager.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.SkillDocument
		err := tx.Where("skill_name = ?", doc.SkillName).First(&existing).Error
		switch {
		case err == nil:
			rows.Document.ID = existing.ID
			rows.Document.CreatedAt = existing.CreatedAt
			if err := tx.Save(&rows.Document).Error; err != nil {
				return fmt.Errorf("failed to update document: %w", err)
			}
			if err := deleteDocumentRows(tx, existing.ID); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&rows.Document).Error; err != nil {
				return fmt.Errorf("failed to create document: %w", err)
			}
		default:
			return fmt.Errorf("failed to query document: %w", err)
		}

		for i := range rows.Lanes {
			laneRows := &rows.Lanes[i]
			laneRows.Lane.DocumentID = rows.Document.ID
			if err := tx.Create(&laneRows.Lane).Error; err != nil {
				return fmt.Errorf("failed to create lane: %w", err)
			}
			for j := range laneRows.Clips {
				laneRows.Clips[j].LaneID = laneRows.Lane.ID
			}
			if len(laneRows.Clips) > 0 {
				if err := tx.Create(&laneRows.Clips).Error; err != nil {
					return fmt.Errorf("failed to create clips: %w", err)
				}
			}
		}
		return nil
	})
}

// LoadDocument rebuilds a document from its stored rows.
func (b *Backend) LoadDocument(skillName string) (*core.Document, error) {
	var docRow model.SkillDocument
	err := b.manager.DB.Where("skill_name = ?", skillName).First(&docRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("skill %q not found", skillName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	var laneRows []model.TrackLane
	if err := b.manager.DB.Where("document_id = ?", docRow.ID).Find(&laneRows).Error; err != nil {
		return nil, fmt.Errorf("failed to query lanes: %w", err)
	}

	rows := &convert.DocumentRows{Document: docRow}
	for _, lane := range laneRows {
		var clips []model.ClipRecord
		if err := b.manager.DB.Where("lane_id = ?", lane.ID).Find(&clips).Error; err != nil {
			return nil, fmt.Errorf("failed to query clips: %w", err)
		}
		rows.Lanes = append(rows.Lanes, convert.LaneRows{Lane: lane, Clips: clips})
	}

	return convert.FromRows(rows)
}

// DeleteDocument removes a document and all its lanes and clips.
func (b *Backend) DeleteDocument(skillName string) error {
	return b.manager.DB.Transaction(func(tx *gorm.DB) error {
		var docRow model.SkillDocument
		err := tx.Where("skill_name = ?", skillName).First(&docRow).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query document: %w", err)
		}
		if err := deleteDocumentRows(tx, docRow.ID); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&docRow).Error; err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
}

// ListDocuments returns all stored skill names.
func (b *Backend) ListDocuments() ([]string, error) {
	var names []string
	err := b.manager.DB.Model(&model.SkillDocument{}).
		Order("skill_name").
		Pluck("skill_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return names, nil
}

// deleteDocumentRows hard-deletes every lane and clip of a document.
func deleteDocumentRows(tx *gorm.DB, documentID uint) error {
	var laneIDs []uint
	if err := tx.Model(&model.TrackLane{}).
		Where("document_id = ?", documentID).
		Pluck("id", &laneIDs).Error; err != nil {
		return fmt.Errorf("failed to query lane ids: %w", err)
	}
	if len(laneIDs) > 0 {
		if err := tx.Unscoped().Where("lane_id IN ?", laneIDs).Delete(&model.ClipRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete clips: %w", err)
		}
	}
	if err := tx.Unscoped().Where("document_id = ?", documentID).Delete(&model.TrackLane{}).Error; err != nil {
		return fmt.Errorf("failed to delete lanes: %w", err)
	}
	return nil
}
