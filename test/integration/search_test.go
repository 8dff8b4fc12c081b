// Package integration provides end-to-end tests covering the full pipeline:
// corpus loading, index construction, persistence, and query evaluation.
package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/embedding"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/extract"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/query"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/storage"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"cats.txt": "Cats are independent animals. A cat sleeps most of the day.",
		"dogs.txt": "Dogs are loyal companions. A dog needs daily walks.",
		"cars.txt": "The car engine needs regular maintenance and oil changes.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIntegration_BuildPersistQuery(t *testing.T) {
	corpusDir := writeCorpus(t)
	artifactDir := t.TempDir()

	docs, err := extract.NewLoader(nil).LoadDir(corpusDir)
	if err != nil {
		t.Fatal(err)
	}

	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
	if err != nil {
		t.Fatal(err)
	}
	built, err := index.NewBuilder(analyzer, index.Options{Zoned: true, ChampionSize: 100}).Build(docs)
	if err != nil {
		t.Fatal(err)
	}

	indexPath := filepath.Join(artifactDir, "zoned", "inverted.idx")
	if err := storage.SaveIndex(built, indexPath); err != nil {
		t.Fatal(err)
	}
	loaded, err := storage.LoadIndex(indexPath)
	if err != nil {
		t.Fatal(err)
	}

	processor, err := query.NewProcessor(loaded, nil, query.Options{ScoreTitle: true})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := processor.Evaluate("cat")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total < 1 {
		t.Fatalf("expected at least 1 result, got %d", resp.Total)
	}
	if resp.Results[0].DocID != "cats.txt" {
		t.Errorf("top result = %s, want cats.txt", resp.Results[0].DocID)
	}
	if resp.Results[0].Name != "cats" {
		t.Errorf("top result name = %q, want %q", resp.Results[0].Name, "cats")
	}
}

func TestIntegration_EmbeddingExpansion(t *testing.T) {
	corpusDir := writeCorpus(t)
	artifactDir := t.TempDir()

	// Pretrained source: automobile is close to car, far from cat.
	glovePath := filepath.Join(artifactDir, "glove.txt")
	source := "automobile 1.0 0.0 0.1\n" +
		"car 0.95 0.05 0.1\n" +
		"cat 0.0 1.0 0.0\n" +
		"engine 0.8 0.1 0.2\n"
	if err := os.WriteFile(glovePath, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := extract.NewLoader(nil).LoadDir(corpusDir)
	if err != nil {
		t.Fatal(err)
	}
	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
	if err != nil {
		t.Fatal(err)
	}
	built, err := index.NewBuilder(analyzer, index.Options{}).Build(docs)
	if err != nil {
		t.Fatal(err)
	}

	full, err := embedding.LoadGloVe(glovePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Trim to the corpus vocabulary plus the out-of-corpus query term, the
	// same shape the trim phase produces for a larger pretrained table.
	vocab := built.Vocabulary()
	vocab["automobile"] = struct{}{}
	trimmed := full.Trim(vocab)

	embPath := filepath.Join(artifactDir, "embeddings.bin")
	if err := storage.SaveEmbeddings(trimmed, embPath); err != nil {
		t.Fatal(err)
	}
	table, err := storage.LoadEmbeddings(embPath)
	if err != nil {
		t.Fatal(err)
	}

	plain, err := query.NewProcessor(built, nil, query.Options{})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := plain.Evaluate("automobile")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Fatalf("unexpanded out-of-vocabulary query matched %d documents", resp.Total)
	}

	expanded, err := query.NewProcessor(built, table, query.Options{ExpandQuery: true})
	if err != nil {
		t.Fatal(err)
	}
	resp, err = expanded.Evaluate("automobile")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total < 1 {
		t.Fatal("expanded query found nothing")
	}
	if resp.Results[0].DocID != "cars.txt" {
		t.Errorf("top result = %s, want cars.txt", resp.Results[0].DocID)
	}
}

func TestIntegration_RegistryLifecycle(t *testing.T) {
	corpusDir := writeCorpus(t)
	artifactDir := t.TempDir()
	ctx := context.Background()

	docs, err := extract.NewLoader(nil).LoadDir(corpusDir)
	if err != nil {
		t.Fatal(err)
	}
	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
	if err != nil {
		t.Fatal(err)
	}
	built, err := index.NewBuilder(analyzer, index.Options{}).Build(docs)
	if err != nil {
		t.Fatal(err)
	}

	registry, err := storage.OpenRegistry(filepath.Join(artifactDir, "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer registry.Close()

	if _, err := registry.LatestBuild(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("LatestBuild before any build: %v", err)
	}
	if err := registry.ReplaceDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}
	rec, err := registry.RecordBuild(ctx, false, built.DocCount(), built.VocabSize())
	if err != nil {
		t.Fatal(err)
	}

	latest, err := registry.LatestBuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != rec.ID {
		t.Errorf("latest build = %s, want %s", latest.ID, rec.ID)
	}
	name, err := registry.DocumentName(ctx, "cats.txt")
	if err != nil {
		t.Fatal(err)
	}
	if name != "cats" {
		t.Errorf("name = %q, want %q", name, "cats")
	}
}

func TestIntegration_RebuildIsIdempotent(t *testing.T) {
	corpusDir := writeCorpus(t)
	artifactDir := t.TempDir()

	build := func() []byte {
		docs, err := extract.NewLoader(nil).LoadDir(corpusDir)
		if err != nil {
			t.Fatal(err)
		}
		analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
		if err != nil {
			t.Fatal(err)
		}
		ix, err := index.NewBuilder(analyzer, index.Options{Zoned: true, ChampionSize: 100}).Build(docs)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(artifactDir, "inverted.idx")
		if err := storage.SaveIndex(ix, path); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := build()
	second := build()
	if len(first) == 0 || string(first) != string(second) {
		t.Error("rebuilding an unchanged corpus produced different artifact bytes")
	}
}

func TestIntegration_DocTagCorpus(t *testing.T) {
	corpusDir := t.TempDir()
	dump := `<doc id="201" title="Feline Overview">
Cats purr and sleep in sunny spots.
</doc>
<doc id="202" title="Canine Overview">
Dogs bark and fetch sticks in the park.
</doc>
`
	if err := os.WriteFile(filepath.Join(corpusDir, "dump.txt"), []byte(dump), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := extract.NewLoader(nil).LoadDir(corpusDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	analyzer, err := tokenizer.NewAnalyzer(tokenizer.Options{StopWords: true})
	if err != nil {
		t.Fatal(err)
	}
	ix, err := index.NewBuilder(analyzer, index.Options{Zoned: true}).Build(docs)
	if err != nil {
		t.Fatal(err)
	}
	processor, err := query.NewProcessor(ix, nil, query.Options{
		ScoreTitle:  true,
		ZoneWeights: map[models.Zone]float64{models.ZoneTitle: 0.7, models.ZoneBody: 0.3},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := processor.Evaluate("feline")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].DocID != "201" {
		t.Fatalf("results = %+v, want document 201", resp.Results)
	}
	if resp.Results[0].Name != "Feline Overview" {
		t.Errorf("name = %q", resp.Results[0].Name)
	}
}
