package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExpectedOutputPath(t *testing.T) {
	got := expectedOutputPath("/in/Report.final.docx", "/out")
	if want := filepath.Join("/out", "Report.final.pdf"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestConvertRejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty.docx")
	if err := os.WriteFile(in, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLibreOffice(1)
	if _, err := l.ConvertToPDF(context.Background(), in, dir); err == nil {
		t.Fatal("expected validation error for empty file")
	}
}

func TestConvertMissingBinary(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.docx")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLibreOffice(1)
	l.Binary = filepath.Join(dir, "no-such-soffice")
	if l.Available() {
		t.Fatal("binary should not be available")
	}
	if _, err := l.ConvertToPDF(context.Background(), in, dir); err == nil {
		t.Fatal("expected error when binary is missing")
	}
}
