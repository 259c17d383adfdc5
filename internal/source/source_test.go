package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpenPicksSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	pdf := filepath.Join(dir, "board.PDF")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{dir, "*source.DirSource"},
		{file, "*source.FileSource"},
		{pdf, "*source.PDFSource"},
	}
	for _, tt := range tests {
		src, err := Open(tt.path, Options{})
		if err != nil {
			t.Fatalf("Open(%s): %v", tt.path, err)
		}
		if got := fmt.Sprintf("%T", src); got != tt.want {
			t.Errorf("Open(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}

	if _, err := Open(filepath.Join(dir, "missing"), Options{}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestDirSourceOrdersAndSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"walk_03.png", "Walk_01.png", "walk_02.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := (&DirSource{Path: dir}).Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		if string(e.Data) != e.Name {
			t.Errorf("entry %s has wrong data", e.Name)
		}
	}
	want := []string{"notes.txt", "Walk_01.png", "walk_02.png", "walk_03.png"}
	if !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestSortNamesIsCaseInsensitiveFirst(t *testing.T) {
	names := []string{"b.png", "A.png", "a.png", "C.png"}
	SortNames(names)
	if names[0] != "a.png" || names[1] != "A.png" || names[3] != "C.png" {
		t.Errorf("sorted = %v", names)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.png")
	data := pngBytes(t)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := (&FileSource{Path: path}).Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "hero.png" || !bytes.Equal(entries[0].Data, data) {
		t.Errorf("entries = %+v", entries)
	}
}

func TestPageName(t *testing.T) {
	if got := PageName(0); got != "page_001.png" {
		t.Errorf("PageName(0) = %q", got)
	}
	names := []string{PageName(10), PageName(1), PageName(2)}
	SortNames(names)
	if !slices.Equal(names, []string{"page_002.png", "page_003.png", "page_011.png"}) {
		t.Errorf("page names sort out of order: %v", names)
	}
}
