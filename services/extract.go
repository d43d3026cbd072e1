package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// resolveContentType returns the type to extract by. Declared types other
// than empty and application/octet-stream are trusted as-is.
func resolveContentType(declared string, content []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	detected := mimetype.Detect(content)
	switch {
	case detected.Is(MimePDF):
		return MimePDF
	case detected.Is(MimeDOCX):
		return MimeDOCX
	}
	return detected.String()
}

// extractText returns the plain text of a PDF or DOCX document.
func extractText(contentType string, content []byte) (string, error) {
	switch contentType {
	case MimePDF:
		return extractFromPDF(content)
	case MimeDOCX:
		return extractFromDOCX(content)
	default:
		return "", ErrUnsupportedType
	}
}

// extractFromPDF joins the text of every page with newlines.
func extractFromPDF(content []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

// extractFromDOCX joins the text of every body paragraph with newlines.
func extractFromDOCX(content []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open docx body: %w", err)
	}
	defer rc.Close()

	return docxParagraphs(rc)
}

const (
	wordNS   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	markupNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

type docxParagraph struct {
	text   strings.Builder
	nested []string // text box paragraphs, emitted after their host
}

// docxParagraphs returns the run text of every w:p, one paragraph per line.
// Paragraphs inside text boxes follow the paragraph that anchors them.
// Property blocks and compatibility fallbacks are skipped.
func docxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var (
		paragraphs []string
		open       []*docxParagraph
		runDepth   int
		inText     bool
	)
	current := func() *docxParagraph {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == markupNS && t.Name.Local == "Fallback" {
				if err := decoder.Skip(); err != nil {
					return "", fmt.Errorf("failed to parse docx body: %w", err)
				}
				continue
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "pPr", "rPr":
				if err := decoder.Skip(); err != nil {
					return "", fmt.Errorf("failed to parse docx body: %w", err)
				}
			case "p":
				open = append(open, &docxParagraph{})
			case "r":
				runDepth++
			case "t":
				inText = runDepth > 0
			case "tab":
				if p := current(); p != nil && runDepth > 0 {
					p.text.WriteByte('\t')
				}
			case "br", "cr":
				if p := current(); p != nil && runDepth > 0 {
					p.text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				p := current()
				if p == nil {
					continue
				}
				open = open[:len(open)-1]
				if host := current(); host != nil {
					host.nested = append(host.nested, p.text.String())
					host.nested = append(host.nested, p.nested...)
				} else {
					paragraphs = append(paragraphs, p.text.String())
					paragraphs = append(paragraphs, p.nested...)
				}
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if p := current(); p != nil && inText {
				p.text.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
