package embedding

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGloVe(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write embeddings file: %v", err)
	}
	return path
}

func TestLoadGloVe(t *testing.T) {
	path := writeGloVe(t, "the 0.1 0.2 0.3\ncat -0.5 0.25 1\n")
	table, err := LoadGloVe(path, nil)
	if err != nil {
		t.Fatalf("LoadGloVe: %v", err)
	}
	if table.Dim() != 3 {
		t.Errorf("dim = %d, want 3", table.Dim())
	}
	if table.Len() != 2 {
		t.Errorf("len = %d, want 2", table.Len())
	}
	vec, ok := table.Vector("cat")
	if !ok {
		t.Fatal("cat missing from table")
	}
	if vec[0] != -0.5 || vec[1] != 0.25 || vec[2] != 1 {
		t.Errorf("cat vector = %v", vec)
	}
}

func TestLoadGloVeSkipsBlankLines(t *testing.T) {
	path := writeGloVe(t, "a 1 0\n\nb 0 1\n")
	table, err := LoadGloVe(path, nil)
	if err != nil {
		t.Fatalf("LoadGloVe: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("len = %d, want 2", table.Len())
	}
}

func TestLoadGloVeErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"dimension mismatch", "a 1 0\nb 1\n"},
		{"non numeric component", "a 1 zero\n"},
		{"term with no components", "lonely\n"},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGloVe(t, tt.content)
			if _, err := LoadGloVe(path, nil); err == nil {
				t.Error("LoadGloVe accepted malformed input")
			}
		})
	}
}

func TestLoadGloVeMissingFile(t *testing.T) {
	if _, err := LoadGloVe(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
		t.Error("LoadGloVe accepted a missing file")
	}
}
