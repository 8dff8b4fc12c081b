package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
)

// Corpus dumps in the wiki-extractor layout pack many documents into one
// text file, each wrapped in <doc id="..." title="...">...</doc>. The markup
// is not well-formed XML (unescaped ampersands are common), so it is scanned
// with regular expressions instead of an XML decoder.
var (
	docTag  = regexp.MustCompile(`(?s)<doc\s+([^>]*)>(.*?)</doc>`)
	attrTag = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// isDocTagFile reports whether a text-like file holds doc-tag markup.
func isDocTagFile(ext, text string) bool {
	switch ext {
	case ".txt", ".md", ".rst", "":
		return strings.Contains(text, "<doc ")
	}
	return false
}

// parseDocTags extracts every <doc> element from text. Each element must
// carry an id attribute; title defaults to the id when absent.
func parseDocTags(text, source string) ([]models.Document, error) {
	matches := docTag.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no <doc> elements found")
	}
	docs := make([]models.Document, 0, len(matches))
	for _, m := range matches {
		attrs := make(map[string]string)
		for _, kv := range attrTag.FindAllStringSubmatch(m[1], -1) {
			attrs[kv[1]] = kv[2]
		}
		id := attrs["id"]
		if id == "" {
			return nil, fmt.Errorf("<doc> element without id attribute")
		}
		title := attrs["title"]
		if title == "" {
			title = id
		}
		docs = append(docs, models.Document{
			ID:     id,
			Name:   title,
			Source: source,
			Zones: map[models.Zone]string{
				models.ZoneTitle: title,
				models.ZoneBody:  strings.TrimSpace(m[2]),
			},
		})
	}
	return docs, nil
}
