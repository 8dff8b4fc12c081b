package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// maxLineBytes bounds one embedding line. GloVe lines are a term plus a few
// hundred float components, well under this.
const maxLineBytes = 1 << 20

// LoadGloVe reads a pretrained table in the whitespace-delimited
// "term c1 c2 ... cN" line format with no header (the GloVe text layout).
// The dimension is taken from the first line; every later line must match.
// logger may be nil.
func LoadGloVe(path string, logger *zap.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var table *Table
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		term := fields[0]
		comps := fields[1:]
		if table == nil {
			if len(comps) == 0 {
				return nil, fmt.Errorf("embeddings %s line %d: no vector components", path, lineNo)
			}
			table, err = NewTable(len(comps))
			if err != nil {
				return nil, err
			}
		}
		if len(comps) != table.Dim() {
			return nil, fmt.Errorf("embeddings %s line %d: term %q has %d components, expected %d",
				path, lineNo, term, len(comps), table.Dim())
		}
		vec := make([]float32, len(comps))
		for i, c := range comps {
			v, err := strconv.ParseFloat(c, 32)
			if err != nil {
				return nil, fmt.Errorf("embeddings %s line %d: term %q component %d: %w", path, lineNo, term, i, err)
			}
			vec[i] = float32(v)
		}
		if err := table.Add(term, vec); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read embeddings %s: %w", path, err)
	}
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("embeddings %s: no vectors found", path)
	}
	if logger != nil {
		logger.Info("embeddings loaded",
			zap.String("path", path),
			zap.Int("terms", table.Len()),
			zap.Int("dimensions", table.Dim()),
		)
	}
	return table, nil
}
