// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skillforge/timeline/pkg/core"
)

const (
	fileSuffix     = ".skill.json"
	gzipFileSuffix = ".skill.json.gz"
)

// sanitizeName makes a skill name safe to use as a file name.
func sanitizeName(skillName string) string {
	name := strings.ReplaceAll(skillName, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return name
}

func (b *Backend) documentPath(skillName string) string {
	suffix := fileSuffix
	if b.cfg.CompressOutput {
		suffix = gzipFileSuffix
	}
	return filepath.Join(b.cfg.OutputDir, sanitizeName(skillName)+suffix)
}

// scanOutputDir lists skill names from document files on disk.
func (b *Backend) scanOutputDir() ([]string, error) {
	entries, err := os.ReadDir(b.cfg.OutputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, gzipFileSuffix):
			names = append(names, strings.TrimSuffix(name, gzipFileSuffix))
		case strings.HasSuffix(name, fileSuffix):
			names = append(names, strings.TrimSuffix(name, fileSuffix))
		}
	}
	sort.Strings(names)
	return names, nil
}

// writeDocumentFile writes a document to path, gzip-compressed when the path
// carries the gzip suffix.
func (b *Backend) writeDocumentFile(path string, doc *core.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// readDocumentFile reads a document from path, trying the gzip variant when
// the plain file is absent.
func (b *Backend) readDocumentFile(path string) (*core.Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if alt := alternatePath(path); alt != "" {
			f, err = os.Open(alt)
			path = alt
		}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	var doc core.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

func (b *Backend) removeDocumentFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		if alt := alternatePath(path); alt != "" {
			if altErr := os.Remove(alt); altErr == nil || os.IsNotExist(altErr) {
				return nil
			}
		}
		return nil
	}
	return err
}

// alternatePath flips between the plain and gzip file suffix so documents
// survive a CompressOutput config change.
func alternatePath(path string) string {
	if strings.HasSuffix(path, gzipFileSuffix) {
		return strings.TrimSuffix(path, gzipFileSuffix) + fileSuffix
	}
	if strings.HasSuffix(path, fileSuffix) {
		return strings.TrimSuffix(path, fileSuffix) + gzipFileSuffix
	}
	return ""
}

// ExportDocument writes a document to an explicit path outside the output
// directory, compressing when the path ends in .gz.
func (b *Backend) ExportDocument(doc *core.Document, path string) error {
	return b.writeDocumentFile(path, doc)
}

// ImportDocument reads a document from an explicit path and stores it under
// its own skill name.
func (b *Backend) ImportDocument(path string) (*core.Document, error) {
	doc, err := b.readDocumentFile(path)
	if err != nil {
		return nil, err
	}
	if err := b.SaveDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
