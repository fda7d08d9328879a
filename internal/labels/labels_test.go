package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromDirectorySortsEntries(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"World", "Hello", "Thanks"} {
		if err := os.Mkdir(filepath.Join(tmp, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	set, err := FromDirectory(tmp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Hello", "Thanks", "World"}
	if set.Len() != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), set.Len())
	}
	for i, name := range want {
		if set.Resolve(i) != name {
			t.Fatalf("index %d: expected %s, got %s", i, name, set.Resolve(i))
		}
	}
}

func TestFromDirectoryEmpty(t *testing.T) {
	if _, err := FromDirectory(t.TempDir()); err == nil {
		t.Fatal("expected error for empty labels directory")
	}
}

func TestSynthesize(t *testing.T) {
	set := Synthesize(3)
	if set.Resolve(0) != "Class_0" || set.Resolve(2) != "Class_2" {
		t.Fatalf("unexpected synthesized names: %v", set.Names())
	}
}

func TestResolveUnknownIndex(t *testing.T) {
	set := Synthesize(26)
	if got := set.Resolve(999); got != "Unknown_999" {
		t.Fatalf("expected Unknown_999, got %s", got)
	}
	if got := set.Resolve(-1); got != "Unknown_-1" {
		t.Fatalf("expected Unknown_-1, got %s", got)
	}
}
