package storage

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/embedding"
)

// Embedding artifact layout, version 1, little-endian:
//
//	magic "BEMB", version u8, dimension u32, term count u32,
//	then per term in sorted order: term, dimension float32 components
const (
	embMagic   = "BEMB"
	embVersion = 1
)

// SaveEmbeddings atomically writes the trimmed table to path.
func SaveEmbeddings(table *embedding.Table, path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		b := &binWriter{w: bw}
		b.bytes([]byte(embMagic))
		b.u8(embVersion)
		b.u32(uint32(table.Dim()))
		terms := table.Terms()
		b.u32(uint32(len(terms)))
		for _, term := range terms {
			vec, _ := table.Vector(term)
			b.str(term)
			for _, c := range vec {
				b.f32(c)
			}
		}
		if b.err != nil {
			return fmt.Errorf("encode embeddings: %w", b.err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("encode embeddings: %w", err)
		}
		return nil
	})
}

// LoadEmbeddings reads a trimmed embedding table written by SaveEmbeddings.
func LoadEmbeddings(path string) (*embedding.Table, error) {
	f, err := openArtifact(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &binReader{r: bufio.NewReader(f)}
	if string(b.bytes(len(embMagic))) != embMagic {
		if b.err != nil {
			return nil, fmt.Errorf("embeddings %s: %w", path, b.err)
		}
		return nil, fmt.Errorf("embeddings %s: bad magic: %w", path, ErrSchema)
	}
	if v := b.u8(); b.err == nil && v != embVersion {
		return nil, fmt.Errorf("embeddings %s: unsupported version %d: %w", path, v, ErrSchema)
	}
	dim := int(b.u32())
	count := int(b.u32())
	if b.err != nil {
		return nil, fmt.Errorf("embeddings %s: %w", path, b.err)
	}
	table, err := embedding.NewTable(dim)
	if err != nil {
		return nil, fmt.Errorf("embeddings %s: %v: %w", path, err, ErrSchema)
	}
	vec := make([]float32, dim)
	for i := 0; i < count && b.err == nil; i++ {
		term := b.str()
		for j := 0; j < dim; j++ {
			vec[j] = b.f32()
		}
		if b.err == nil {
			if err := table.Add(term, vec); err != nil {
				return nil, fmt.Errorf("embeddings %s: %v: %w", path, err, ErrSchema)
			}
		}
	}
	if b.err != nil {
		if b.err == io.EOF || b.err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("embeddings %s: truncated artifact: %w", path, ErrSchema)
		}
		return nil, fmt.Errorf("embeddings %s: %w", path, b.err)
	}
	return table, nil
}
