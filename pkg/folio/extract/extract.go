// Package extract converts uploaded files into plain text for the assistant.
//
// Dispatch is purely on the declared file extension, never on content
// sniffing. PDF parse failures are absorbed into a documented marker string so
// the conversation can continue; DOCX failures surface as a typed error the
// caller decides how to soften.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Kind identifies how a file's content is extracted.
type Kind string

const (
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindDocx    Kind = "docx"
	KindUnknown Kind = "unknown"
)

// PDFFailureMarker is returned in place of PDF text when parsing fails.
// It reads as normal file content so the assistant can ask the visitor to
// paste the relevant text instead.
const PDFFailureMarker = "[The attached PDF could not be read. Ask the visitor to paste the relevant text directly into the chat.]"

var (
	// ErrDecode means the file bytes were not valid UTF-8 text.
	ErrDecode = errors.New("file is not valid UTF-8 text")

	// ErrUnsupportedDocument means a DOCX file could not be parsed.
	ErrUnsupportedDocument = errors.New("unsupported or malformed document")
)

// File is a transiently uploaded file: name, declared extension (via the
// name), raw bytes. Never persisted.
type File struct {
	Name string
	Data []byte
}

// KindOf maps a file name's extension to its extraction kind.
func KindOf(name string) Kind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "txt":
		return KindText
	case "pdf":
		return KindPDF
	case "docx":
		return KindDocx
	default:
		return KindUnknown
	}
}

// Extract converts a file to plain text.
//
// Unknown extensions return ("", nil): the file is ignored, not an error.
// PDF failures return (PDFFailureMarker, nil). Text decode failures return
// ErrDecode and DOCX failures ErrUnsupportedDocument.
func Extract(f File) (string, error) {
	switch KindOf(f.Name) {
	case KindText:
		return extractText(f.Data)
	case KindPDF:
		return extractPDF(f.Data), nil
	case KindDocx:
		return extractDocx(f.Data)
	case KindUnknown:
		return "", nil
	}
	return "", nil
}

// AppendToMessage concatenates extracted file text onto a user message as a
// clearly delimited block.
func AppendToMessage(message, fileName, text string) string {
	if text == "" {
		return message
	}
	return message + fmt.Sprintf("\n\nFile content from %s:\n%s", fileName, text)
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrDecode
	}
	return string(data), nil
}

// extractPDF never fails: malformed and exotic PDFs are common and must not
// abort the whole request. The pdf package panics on some malformed inputs,
// so the recover is load-bearing.
func extractPDF(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = PDFFailureMarker
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return PDFFailureMarker
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return PDFFailureMarker
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return PDFFailureMarker
	}

	out := strings.TrimSpace(buf.String())
	if out == "" {
		return PDFFailureMarker
	}
	return out
}

// extractDocx unzips the document and walks the XML text nodes of
// word/document.xml, collecting <w:t> runs. Paragraph ends become newlines.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", ErrUnsupportedDocument)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	}
	defer rc.Close()

	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
