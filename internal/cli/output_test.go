package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
)

func sampleResponse() *models.QueryResponse {
	return &models.QueryResponse{
		Query: "cat",
		Results: []*models.ScoredDoc{
			{DocID: "d1", Name: "Cat Facts", Score: 0.83215, Rank: 1},
			{DocID: "d2", Name: "Dog Care", Score: 0.12345, Rank: 2},
		},
		Total:     2,
		QueryTime: 3,
	}
}

func TestWriteResultsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Rank", "Cat Facts", "Dog Care", "0.83215"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteResultsTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.QueryResponse{Query: "zebra", Results: []*models.ScoredDoc{}}
	if err := WriteResults(&buf, resp, OutputText); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	if !strings.Contains(buf.String(), "No matching results found") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteResultsTextExpanded(t *testing.T) {
	resp := sampleResponse()
	resp.Expanded = []string{"feline", "kitten"}
	var buf bytes.Buffer
	if err := WriteResults(&buf, resp, OutputText); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	if !strings.Contains(buf.String(), "Expanded with: feline, kitten") {
		t.Errorf("output missing expansion line:\n%s", buf.String())
	}
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	var decoded models.QueryResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "cat" || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Results[0].DocID != "d1" {
		t.Errorf("first result = %+v", decoded.Results[0])
	}
}
