// Package extract loads the corpus: it walks a document directory, extracts
// text from the supported formats, and yields documents in a deterministic
// order so index builds are reproducible.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
)

// ErrEmptyCorpus is returned when the corpus directory yields no documents.
var ErrEmptyCorpus = errors.New("corpus contains no documents")

// DefaultExtensions are the file extensions loaded when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ""}

// Loader reads corpus files into documents.
type Loader struct {
	extensions map[string]bool
	logger     *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger for per-file debug output.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader creates a loader accepting the given extensions (lower-case,
// leading dot; "" matches extensionless files). Nil uses DefaultExtensions.
func NewLoader(extensions []string, opts ...LoaderOption) *Loader {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	ld := &Loader{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ld.extensions[strings.ToLower(ext)] = true
	}
	for _, o := range opts {
		o(ld)
	}
	return ld
}

// LoadDir walks root and returns all documents found, ordered by source path
// and in-file position. Returns ErrEmptyCorpus when nothing is found and a
// wrapped error when root is missing or unreadable.
func (ld *Loader) LoadDir(root string) ([]models.Document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("corpus directory %s: %w", root, err)
	}
	var docs []models.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !ld.extensions[ext] {
			return nil
		}
		fileDocs, err := ld.loadFile(root, path, ext)
		if err != nil {
			return fmt.Errorf("corpus file %s: %w", path, err)
		}
		docs = append(docs, fileDocs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus directory %s: %w", root, ErrEmptyCorpus)
	}
	if ld.logger != nil {
		ld.logger.Info("corpus loaded", zap.String("root", root), zap.Int("documents", len(docs)))
	}
	return docs, nil
}

// loadFile turns one corpus file into documents. Text-like files containing
// <doc> markup hold many documents each; everything else is one document
// whose id is the path relative to the corpus root.
func (ld *Loader) loadFile(root, path, ext string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var text string
	switch ext {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}

	if isDocTagFile(ext, text) {
		docs, err := parseDocTags(text, path)
		if err != nil {
			return nil, err
		}
		return docs, nil
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	id := filepath.ToSlash(rel)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []models.Document{{
		ID:     id,
		Name:   name,
		Source: path,
		Zones: map[models.Zone]string{
			models.ZoneTitle: name,
			models.ZoneBody:  text,
		},
	}}, nil
}
