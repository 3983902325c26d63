// internal/storage/storage.go
package storage

import "github.com/skillforge/timeline/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Document persistence, keyed by skill name
	SaveDocument(doc *core.Document) error
	LoadDocument(skillName string) (*core.Document, error)
	DeleteDocument(skillName string) error
	ListDocuments() ([]string, error)
}

// Exportable is an optional interface for storage backends that produce
// standalone files suitable for handing to the game runtime.
type Exportable interface {
	ExportDocument(doc *core.Document, path string) error
	ImportDocument(path string) (*core.Document, error)
}
