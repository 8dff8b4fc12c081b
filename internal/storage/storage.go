// Package storage persists index artifacts: deterministic binary codecs for
// the inverted index and the trimmed embedding table, and a SQLite registry
// for the document id to name mapping.
//
// Both codecs serialize terms and documents in sorted order, so building the
// same corpus twice produces byte-identical artifacts. Writes land in a
// temporary file that is renamed into place; a failed build never leaves a
// partial artifact behind.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// ErrNotFound indicates a missing artifact (index, embeddings, registry).
var ErrNotFound = errors.New("artifact not found")

// ErrSchema indicates an artifact that does not deserialize into the
// expected structure.
var ErrSchema = errors.New("artifact schema violation")

// writeAtomic writes via fn into a temp file in path's directory, syncs, and
// renames it over path. On error the temp file is removed.
func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := fn(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// binWriter wraps an io.Writer with sticky-error little-endian helpers.
type binWriter struct {
	w   io.Writer
	err error
}

func (b *binWriter) u8(v uint8) {
	if b.err == nil {
		b.err = binary.Write(b.w, binary.LittleEndian, v)
	}
}

func (b *binWriter) u32(v uint32) {
	if b.err == nil {
		b.err = binary.Write(b.w, binary.LittleEndian, v)
	}
}

func (b *binWriter) u64(v uint64) {
	if b.err == nil {
		b.err = binary.Write(b.w, binary.LittleEndian, v)
	}
}

func (b *binWriter) f64(v float64) {
	b.u64(math.Float64bits(v))
}

func (b *binWriter) f32(v float32) {
	if b.err == nil {
		b.err = binary.Write(b.w, binary.LittleEndian, math.Float32bits(v))
	}
}

func (b *binWriter) str(s string) {
	b.u32(uint32(len(s)))
	if b.err == nil {
		_, b.err = io.WriteString(b.w, s)
	}
}

func (b *binWriter) bytes(p []byte) {
	if b.err == nil {
		_, b.err = b.w.Write(p)
	}
}

// binReader mirrors binWriter for reads.
type binReader struct {
	r   io.Reader
	err error
}

func (b *binReader) u8() uint8 {
	var v uint8
	if b.err == nil {
		b.err = binary.Read(b.r, binary.LittleEndian, &v)
	}
	return v
}

func (b *binReader) u32() uint32 {
	var v uint32
	if b.err == nil {
		b.err = binary.Read(b.r, binary.LittleEndian, &v)
	}
	return v
}

func (b *binReader) u64() uint64 {
	var v uint64
	if b.err == nil {
		b.err = binary.Read(b.r, binary.LittleEndian, &v)
	}
	return v
}

func (b *binReader) f64() float64 {
	return math.Float64frombits(b.u64())
}

func (b *binReader) f32() float32 {
	return math.Float32frombits(b.u32())
}

// maxStringBytes bounds a single serialized string to catch corrupt length
// prefixes before allocating.
const maxStringBytes = 1 << 20

func (b *binReader) str() string {
	n := b.u32()
	if b.err != nil {
		return ""
	}
	if n > maxStringBytes {
		b.err = fmt.Errorf("string length %d exceeds limit: %w", n, ErrSchema)
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = err
		return ""
	}
	return string(buf)
}

func (b *binReader) bytes(n int) []byte {
	buf := make([]byte, n)
	if b.err == nil {
		_, b.err = io.ReadFull(b.r, buf)
	}
	return buf
}

// openArtifact opens path, mapping a missing file onto ErrNotFound.
func openArtifact(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
