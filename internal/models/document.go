// Package models defines core data structures for documents, zones, and ranked results.
package models

// Zone is a named sub-field of a document scored independently in zoned retrieval.
type Zone string

const (
	// ZoneTitle is the document title zone.
	ZoneTitle Zone = "title"
	// ZoneBody is the document content zone.
	ZoneBody Zone = "body"
)

// DefaultZones is the closed zone set used by zoned indexing unless configured otherwise.
var DefaultZones = []Zone{ZoneTitle, ZoneBody}

// Document is a corpus document at ingestion time. Immutable after creation.
type Document struct {
	// ID is a stable identifier, unique within the corpus. For plain-file
	// corpora this is the file's path relative to the corpus root; for
	// doc-tag corpus files it is the id attribute of the <doc> element.
	ID string
	// Name is the display title of the document.
	Name string
	// Zones maps each zone to its raw text. Flat corpora carry only ZoneBody;
	// zoned indexing additionally uses ZoneTitle (the document name).
	Zones map[Zone]string
	// Source is the file the document was read from, kept for diagnostics.
	Source string
}

// Text returns the body zone text.
func (d *Document) Text() string {
	return d.Zones[ZoneBody]
}
