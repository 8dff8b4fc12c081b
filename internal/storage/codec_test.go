package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/embedding"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

func buildIndex(t *testing.T, opts index.Options, docs []models.Document) *index.Index {
	t.Helper()
	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	ix, err := index.NewBuilder(analyzer, opts).Build(docs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

func sampleDocs() []models.Document {
	return []models.Document{
		{
			ID:   "d1",
			Name: "Cat Facts",
			Zones: map[models.Zone]string{
				models.ZoneTitle: "Cat Facts",
				models.ZoneBody:  "cat cat dog feline whiskers",
			},
		},
		{
			ID:   "d2",
			Name: "Dog Care",
			Zones: map[models.Zone]string{
				models.ZoneTitle: "Dog Care",
				models.ZoneBody:  "dog leash walk",
			},
		},
	}
}

func TestIndexRoundTripFlat(t *testing.T) {
	ix := buildIndex(t, index.Options{}, sampleDocs())
	path := filepath.Join(t.TempDir(), "flat", "inverted.idx")

	if err := SaveIndex(ix, path); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	loaded, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if !reflect.DeepEqual(ix, loaded) {
		t.Error("loaded index differs from the saved one")
	}
}

func TestIndexRoundTripZoned(t *testing.T) {
	ix := buildIndex(t, index.Options{Zoned: true, ChampionSize: 2}, sampleDocs())
	path := filepath.Join(t.TempDir(), "zoned", "inverted.idx")

	if err := SaveIndex(ix, path); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	loaded, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if !reflect.DeepEqual(ix, loaded) {
		t.Error("loaded index differs from the saved one")
	}
	if !loaded.Zoned {
		t.Error("zoned flag lost in round trip")
	}
	if loaded.Analyzer != (tokenizer.Options{StopWords: true}) {
		t.Errorf("analyzer options = %+v", loaded.Analyzer)
	}
}

func TestSaveIndexIdempotent(t *testing.T) {
	ix := buildIndex(t, index.Options{Zoned: true, ChampionSize: 2}, sampleDocs())
	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.idx")
	p2 := filepath.Join(dir, "two.idx")

	if err := SaveIndex(ix, p1); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	if err := SaveIndex(ix, p2); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	b1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("two saves of the same index produced different bytes")
	}
}

func TestLoadIndexMissing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "absent.idx"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadIndexBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.idx")
	if err := os.WriteFile(path, []byte("not an index artifact"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadIndex(path)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}

func TestLoadIndexTruncated(t *testing.T) {
	ix := buildIndex(t, index.Options{}, sampleDocs())
	path := filepath.Join(t.TempDir(), "inverted.idx")
	if err := SaveIndex(ix, path); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadIndex(path); !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}

func TestSaveIndexOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inverted.idx")

	first := buildIndex(t, index.Options{}, sampleDocs())
	if err := SaveIndex(first, path); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	second := buildIndex(t, index.Options{}, sampleDocs()[:1])
	if err := SaveIndex(second, path); err != nil {
		t.Fatalf("SaveIndex overwrite: %v", err)
	}

	loaded, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if loaded.DocCount() != 1 {
		t.Errorf("DocCount = %d, want 1", loaded.DocCount())
	}
	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want just the artifact", len(entries))
	}
}

func TestEmbeddingsRoundTrip(t *testing.T) {
	table, err := embedding.NewTable(3)
	if err != nil {
		t.Fatal(err)
	}
	vectors := map[string][]float32{
		"cat": {0.1, -0.2, 0.3},
		"dog": {1, 0, -1},
	}
	for term, vec := range vectors {
		if err := table.Add(term, vec); err != nil {
			t.Fatalf("Add(%q): %v", term, err)
		}
	}

	path := filepath.Join(t.TempDir(), "embeddings.bin")
	if err := SaveEmbeddings(table, path); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}
	loaded, err := LoadEmbeddings(path)
	if err != nil {
		t.Fatalf("LoadEmbeddings: %v", err)
	}

	if loaded.Dim() != table.Dim() || loaded.Len() != table.Len() {
		t.Fatalf("shape = (%d,%d), want (%d,%d)", loaded.Dim(), loaded.Len(), table.Dim(), table.Len())
	}
	for term, want := range vectors {
		got, ok := loaded.Vector(term)
		if !ok {
			t.Fatalf("term %q missing after round trip", term)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("vector(%q) = %v, want %v", term, got, want)
		}
	}
}

func TestLoadEmbeddingsMissing(t *testing.T) {
	_, err := LoadEmbeddings(filepath.Join(t.TempDir(), "absent.bin"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadEmbeddingsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte("XXXXGARBAGE"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEmbeddings(path); !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}
