package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesNestedPaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	dir, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	p, err := dir.WriteFile(filepath.Join("run", "001.png"), []byte("png"))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !filepath.IsAbs(p) {
		t.Fatalf("want absolute path, got %q", p)
	}
	got, err := dir.ReadFile(filepath.Join("run", "001.png"))
	if err != nil || string(got) != "png" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
}

func TestWriteFileReplaces(t *testing.T) {
	dir, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	for _, body := range []string{"first", "second"} {
		if _, err := dir.WriteFile("a.png", []byte(body)); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	got, _ := dir.ReadFile("a.png")
	if string(got) != "second" {
		t.Fatalf("got %q", got)
	}
	entries, _ := os.ReadDir(dir.Root())
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestRejectsEscapes(t *testing.T) {
	dir, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	for _, name := range []string{"../x.png", "a/../../x.png", filepath.Join(string(filepath.Separator), "tmp", "x.png")} {
		if _, err := dir.WriteFile(name, []byte("x")); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("WriteFile(%q) err = %v, want ErrOutsideRoot", name, err)
		}
	}
}

func TestRejectsSymlinkedSubdir(t *testing.T) {
	outside := t.TempDir()
	dir, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(dir.Root(), "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := dir.WriteFile(filepath.Join("link", "x.png"), []byte("x")); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
}
