// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/skillforge/timeline/internal/config"
	"github.com/skillforge/timeline/pkg/core"
)

// Backend keeps skill documents in memory and mirrors every save to a JSON
// file under the configured output directory.
type Backend struct {
	cfg config.MemoryConfig

	documents map[string]*core.Document // keyed by skill name
	mu        sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		documents: make(map[string]*core.Document),
	}
}

// Init loads any previously written documents from the output directory.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	names, err := b.scanOutputDir()
	if err != nil {
		return err
	}
	for _, name := range names {
		doc, err := b.readDocumentFile(b.documentPath(name))
		if err != nil {
			return fmt.Errorf("loading stored skill %q: %w", name, err)
		}
		b.documents[doc.SkillName] = doc
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveDocument stores the document and writes it through to disk.
func (b *Backend) SaveDocument(doc *core.Document) error {
	if doc == nil {
		return fmt.Errorf("cannot save nil document")
	}
	if doc.SkillName == "" {
		return fmt.Errorf("cannot save document without a skill name")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.writeDocumentFile(b.documentPath(doc.SkillName), doc); err != nil {
		return err
	}
	b.documents[doc.SkillName] = doc
	return nil
}

// LoadDocument returns the document for a skill name.
func (b *Backend) LoadDocument(skillName string) (*core.Document, error) {
	b.mu.RLock()
	doc, ok := b.documents[skillName]
	b.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := b.readDocumentFile(b.documentPath(skillName))
	if err != nil {
		return nil, fmt.Errorf("skill %q not found: %w", skillName, err)
	}

	b.mu.Lock()
	b.documents[skillName] = doc
	b.mu.Unlock()
	return doc, nil
}

// DeleteDocument removes the document and its file.
func (b *Backend) DeleteDocument(skillName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.removeDocumentFile(b.documentPath(skillName)); err != nil {
		return err
	}
	delete(b.documents, skillName)
	return nil
}

// ListDocuments returns the skill names present in the output directory,
// merged with any unsaved in-memory documents.
func (b *Backend) ListDocuments() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names, err := b.scanOutputDir()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for n := range b.documents {
		if !seen[n] {
			names = append(names, n)
		}
	}
	return names, nil
}
