package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndURL(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := s.Save("visitor-1", KindPhoto, "selfie.JPG", strings.NewReader("jpegbytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/uploads/visitors/visitor-1/photos/") {
		t.Errorf("unexpected URL %s", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("extension not normalized: %s", url)
	}

	rel := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("blob not on disk: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("blob content = %q", data)
	}
}

func TestSaveDocumentDefaultsExtension(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	url, err := s.Save("visitor-2", KindDocument, "scan", strings.NewReader("pdfbytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(url, "/documents/") || !strings.HasSuffix(url, ".jpg") {
		t.Errorf("unexpected URL %s", url)
	}
}
