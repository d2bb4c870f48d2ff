package filetype

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectPDF(t *testing.T) {
	p := writeFile(t, "doc.pdf", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"))
	info, err := New().Detect(p)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.MIMEType != "application/pdf" || info.Kind != Renderable {
		t.Fatalf("got %+v", info)
	}
}

func TestDetectImageIsRenderable(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	info, err := New().Detect(writeFile(t, "scan.png", buf.Bytes()))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.Kind != Renderable {
		t.Fatalf("png classified as %v", info.Kind)
	}
}

func TestDetectPlainTextUnsupported(t *testing.T) {
	p := writeFile(t, "notes.txt", []byte("line one\nline two\n"))
	info, err := New().Detect(p)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.Kind != Unsupported {
		t.Fatalf("plain text classified as %v", info.Kind)
	}
}
