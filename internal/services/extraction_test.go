package services

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/yungbote/edubot-backend/internal/platform/apierr"
)

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	got, err := Extract("notes.TXT", []byte("\xef\xbb\xbfThe water cycle moves water around."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Text != "The water cycle moves water around." || got.Attachment != nil {
		t.Fatalf("Extract: got=%+v", got)
	}
}

func TestExtractDocx(t *testing.T) {
	data := docx(t, `<w:p><w:r><w:t>Photosynthesis uses</w:t></w:r><w:r><w:t xml:space="preserve"> light.</w:t></w:r></w:p><w:p><w:r><w:t>Plants grow.</w:t></w:r></w:p>`)
	got, err := Extract("bio.docx", data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Text != "Photosynthesis uses light.\nPlants grow." {
		t.Fatalf("docx text: got=%q", got.Text)
	}
}

func TestExtractAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF")
	got, err := Extract("reading.pdf", pdf)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Attachment == nil || got.Attachment.MIMEType != "application/pdf" {
		t.Fatalf("attachment: got=%+v", got)
	}

	_, err = Extract("fake.png", []byte("definitely not a png file"))
	if ae := apierr.As(err); ae == nil || ae.Status != 400 {
		t.Fatalf("mismatched content: want 400 got=%v", err)
	}
}

func TestExtractRejects(t *testing.T) {
	cases := map[string]struct {
		name   string
		data   []byte
		status int
	}{
		"empty":       {"a.txt", nil, 400},
		"too short":   {"a.txt", []byte("tiny"), 400},
		"unsupported": {"a.exe", []byte("MZ..............."), 400},
		"bad utf8":    {"a.txt", []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8, 0xf7, 0xf6, 0xf5}, 400},
		"too large":   {"a.txt", bytes.Repeat([]byte("a"), MaxUploadBytes+1), 413},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(tc.name, tc.data)
			ae := apierr.As(err)
			if ae == nil || ae.Status != tc.status {
				t.Fatalf("Extract: want status=%d got=%v", tc.status, err)
			}
		})
	}
}
