package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Kind identifies a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedKind is returned for formats other than PDF and DOCX.
var ErrUnsupportedKind = errors.New("unsupported document kind")

// Extractor turns document bytes into plain text.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
type Extractor struct{}

// Extract returns the text of the first PDF page, or the full body of a DOCX.
// A PDF page without a text layer yields an empty string and no error.
func (Extractor) Extract(ctx context.Context, kind Kind, data []byte) (string, error) {
	return Text(ctx, kind, data)
}

// Text extracts plain text from an in-memory document.
func Text(ctx context.Context, kind Kind, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch kind {
	case KindPDF:
		return firstPagePDF(data)
	case KindDOCX:
		return bodyDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

func firstPagePDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return "", nil
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("read pdf page 1: %w", err)
	}
	return strings.TrimSpace(plain), nil
}

func bodyDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := docxParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("parse docx body: %w", err)
	}

	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// docxParagraphs walks word/document.xml and returns the text of every w:p,
// table cells included, in document order.
func docxParagraphs(raw string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		out    []string
		buf    strings.Builder
		depth  int
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					buf.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					buf.WriteString("\t")
				}
			case "br", "cr":
				if depth > 0 {
					buf.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					out = append(out, buf.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				buf.Write(t)
			}
		}
	}
	return out, nil
}
