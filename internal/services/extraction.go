package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
)

const (
	MaxUploadBytes = 10 << 20
	MinTextRunes   = 10
	maxDocxXML     = 50 << 20
)

var attachmentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Extracted is either local text or an attachment for the model to read.
type Extracted struct {
	Text       string
	Attachment *gateway.Attachment
}

// Extract picks a strategy from the file extension.
func Extract(filename string, data []byte) (*Extracted, error) {
	if len(data) == 0 {
		return nil, apierr.BadRequest("empty_file", "the uploaded file is empty")
	}
	if len(data) > MaxUploadBytes {
		return nil, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", MaxUploadBytes))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := attachmentTypes[ext]; ok {
		if detected := mimetype.Detect(data); !detected.Is(mime) {
			return nil, apierr.BadRequest("content_mismatch", "file content (%s) does not match its %s extension", detected.String(), ext)
		}
		return &Extracted{Attachment: &gateway.Attachment{Data: data, MIMEType: mime}}, nil
	}

	var text string
	switch ext {
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return nil, apierr.BadRequest("invalid_text", "text files must be UTF-8")
		}
		text = string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	case ".docx":
		t, err := DocxText(data)
		if err != nil {
			return nil, apierr.BadRequest("unreadable_document", "could not read the document: %v", err)
		}
		text = t
	default:
		return nil, apierr.BadRequest("unsupported_format", "unsupported file format %q", ext)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextRunes {
		return nil, apierr.BadRequest("text_too_short", "the document is empty or its text could not be read")
	}
	return &Extracted{Text: text}, nil
}

// DocxText returns the paragraph text of word/document.xml, one paragraph per line.
func DocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, maxDocxXML))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
