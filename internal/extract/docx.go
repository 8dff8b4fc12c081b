package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxDocumentPath = "word/document.xml"

// extractDOCX pulls the text runs out of a .docx archive. Unlike the corpus
// dump markup, document.xml is well-formed XML, so a token stream is used:
// character data inside w:t elements is the document text, everything else
// is layout.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("docx: not a zip archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == docxDocumentPath {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("docx: %w", err)
			}
			defer rc.Close()
			return docxText(rc)
		}
	}
	return "", fmt.Errorf("docx: %s missing from archive", docxDocumentPath)
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var runs []string
	inRun := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx: parse document: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inRun = t.Name.Local == "t"
		case xml.EndElement:
			inRun = false
		case xml.CharData:
			if inRun {
				if s := strings.TrimSpace(string(t)); s != "" {
					runs = append(runs, s)
				}
			}
		}
	}
	return strings.Join(runs, " "), nil
}
