// Package docx extracts text from Office Open XML word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor reads word/document.xml out of the DOCX zip container.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// Extract returns the paragraphs of the document, one per line. Table cells
// within a row are separated by " | " so each row stays on one line.
func (e *Extractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: not a zip container: %v", domain.ErrExtractionFailed, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return "", err
	}

	return parseDocumentXML(body)
}

// readPart returns the bytes of a named zip entry.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: docx: open %s: %v", domain.ErrExtractionFailed, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: docx: read %s: %v", domain.ErrExtractionFailed, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: docx: missing %s", domain.ErrExtractionFailed, name)
}

// parseDocumentXML walks the WordprocessingML token stream. Only the local
// element names matter: w:t carries text, w:p ends a line, w:tab and w:br
// are whitespace and w:tc separates cells.
func parseDocumentXML(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
		cells  []string
		depth  int // table nesting
	)

	flushLine := func() {
		text := strings.TrimSpace(line.String())
		line.Reset()
		if text == "" {
			return
		}
		if depth > 0 {
			cells = append(cells, text)
			return
		}
		out.WriteString(text)
		out.WriteString("\n")
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: docx: malformed document.xml: %v", domain.ErrExtractionFailed, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			case "br", "cr":
				line.WriteString(" ")
			case "tbl":
				depth++
			case "tr":
				cells = cells[:0]
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				flushLine()
			case "tc":
				flushLine()
			case "tr":
				if len(cells) > 0 {
					out.WriteString(strings.Join(cells, " | "))
					out.WriteString("\n")
				}
				cells = cells[:0]
			case "tbl":
				depth--
			}
		case xml.CharData:
			if inText {
				line.Write(el)
			}
		}
	}
	flushLine()

	return strings.TrimSpace(out.String()), nil
}
