package images

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestSave_SanitizesAndSuffixesCollisions(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), 0)
	first, err := s.Save("PE kit (2025).PNG", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.Filename != "PE_kit__2025_.png" || first.Path != "/images/PE_kit__2025_.png" {
		t.Fatalf("first = %#v", first)
	}
	second, err := s.Save("PE kit (2025).png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	third, err := s.Save("PE kit (2025).png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second.Filename != "PE_kit__2025__1.png" || third.Filename != "PE_kit__2025__2.png" {
		t.Fatalf("collision names = %q, %q", second.Filename, third.Filename)
	}
	if got := s.List(); !reflect.DeepEqual(got, []string{"PE_kit__2025_.png", "PE_kit__2025__1.png", "PE_kit__2025__2.png"}) {
		t.Fatalf("List = %v", got)
	}
}

func TestSave_ConcurrentUploadsKeepEveryFile(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), 0)
	const n = 8
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := s.Save("hat.png", strings.NewReader("png"))
			if err != nil {
				t.Errorf("Save: %v", err)
				return
			}
			names[i] = saved.Filename
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, name := range names {
		if name == "" || seen[name] {
			t.Fatalf("expected %d distinct files; got %v", n, names)
		}
		seen[name] = true
	}
}

func TestSave_RejectsTypeAndSize(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), 8)
	if _, err := s.Save("notes.txt", strings.NewReader("x")); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType; got %v", err)
	}
	if _, err := s.Save("", strings.NewReader("x")); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile; got %v", err)
	}
	if _, err := s.Save("big.png", bytes.NewReader(make([]byte, 9))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge; got %v", err)
	}
	if _, err := s.Save("exact.webp", bytes.NewReader(make([]byte, 8))); err != nil {
		t.Fatalf("expected exact-size upload to succeed; got %v", err)
	}
}

func TestOpen_ReadsBackAndRejectsTraversal(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), 0)
	saved, err := s.Save("../../etc/cat.svg", strings.NewReader("<svg/>"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Filename != "cat.svg" {
		t.Fatalf("filename = %q", saved.Filename)
	}
	rc, err := s.Open(saved.Path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "<svg/>" {
		t.Fatalf("content = %q", b)
	}
	for _, name := range []string{"../cat.svg", "missing.png", "", "cat"} {
		if _, err := s.Open(name); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Open(%q): expected ErrNotFound; got %v", name, err)
		}
	}
	if !s.Resolves(saved.Path) || s.Resolves("/images/missing.png") || s.Resolves("") {
		t.Fatalf("unexpected Resolves results")
	}
	if !s.Resolves("https://example.com/cat.png") {
		t.Fatalf("expected external URL to be trusted")
	}
}

func TestImport_KeepsReferencesAndUploadsFiles(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), 0)
	for _, ref := range []string{"", "https://example.com/a.png", "/images/a.png"} {
		got, err := s.Import(ref)
		if err != nil || got != ref {
			t.Fatalf("Import(%q) = %q, %v", ref, got, err)
		}
	}

	src := filepath.Join(t.TempDir(), "gym bag.jpg")
	if err := os.WriteFile(src, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Import(src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got != "/images/gym_bag.jpg" || !s.Resolves(got) {
		t.Fatalf("Import = %q", got)
	}
	if _, err := s.Import(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
