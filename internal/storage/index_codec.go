package storage

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

// Index artifact layout, version 1, little-endian throughout:
//
//	magic "BIRX", version u8, flags u8 (zoned|stopwords|stemming), champion size u32
//	zones:     u32 count, then each zone name (canonical order)
//	documents: u32 count, sorted by id: id, name, norm f64, per-zone norms f64
//	terms:     u32 count, sorted: term, df u32, per-zone df u32,
//	           then df postings: doc id, tf u32, per-zone tf u32
//	champions: u32 count, sorted: term, u32 count, doc ids
const (
	indexMagic   = "BIRX"
	indexVersion = 1

	flagZoned     = 1 << 0
	flagStopWords = 1 << 1
	flagStemming  = 1 << 2
)

// SaveIndex atomically writes ix to path.
func SaveIndex(ix *index.Index, path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		b := &binWriter{w: bw}
		writeIndex(b, ix)
		if b.err != nil {
			return fmt.Errorf("encode index: %w", b.err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("encode index: %w", err)
		}
		return nil
	})
}

func writeIndex(b *binWriter, ix *index.Index) {
	b.bytes([]byte(indexMagic))
	b.u8(indexVersion)
	var flags uint8
	if ix.Zoned {
		flags |= flagZoned
	}
	if ix.Analyzer.StopWords {
		flags |= flagStopWords
	}
	if ix.Analyzer.Stemming {
		flags |= flagStemming
	}
	b.u8(flags)
	b.u32(uint32(ix.ChampionSize))

	b.u32(uint32(len(ix.Zones)))
	for _, zone := range ix.Zones {
		b.str(string(zone))
	}

	docIDs := make([]string, 0, len(ix.Docs))
	for id := range ix.Docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)
	b.u32(uint32(len(docIDs)))
	for _, id := range docIDs {
		stats := ix.Docs[id]
		b.str(id)
		b.str(stats.Name)
		b.f64(stats.Norm)
		for _, zone := range ix.Zones {
			b.f64(stats.ZoneNorms[zone])
		}
	}

	terms := ix.SortedTerms()
	b.u32(uint32(len(terms)))
	for _, term := range terms {
		pl := ix.Terms[term]
		b.str(term)
		b.u32(uint32(pl.DF()))
		for _, zone := range ix.Zones {
			b.u32(pl.ZoneDF[zone])
		}
		for _, p := range pl.Postings {
			b.str(p.DocID)
			b.u32(p.TF)
			for _, zone := range ix.Zones {
				b.u32(p.ZoneTF[zone])
			}
		}
	}

	champTerms := make([]string, 0, len(ix.Champions))
	for term := range ix.Champions {
		champTerms = append(champTerms, term)
	}
	sort.Strings(champTerms)
	b.u32(uint32(len(champTerms)))
	for _, term := range champTerms {
		ids := ix.Champions[term]
		b.str(term)
		b.u32(uint32(len(ids)))
		for _, id := range ids {
			b.str(id)
		}
	}
}

// LoadIndex reads an index artifact and validates its structural invariants.
// Returns ErrNotFound when the file is missing and ErrSchema wraps when the
// content does not match the expected structure.
func LoadIndex(path string) (*index.Index, error) {
	f, err := openArtifact(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &binReader{r: bufio.NewReader(f)}
	ix, err := readIndex(b)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	if err := ix.Validate(); err != nil {
		return nil, fmt.Errorf("index %s: %v: %w", path, err, ErrSchema)
	}
	return ix, nil
}

func readIndex(b *binReader) (*index.Index, error) {
	if string(b.bytes(len(indexMagic))) != indexMagic {
		if b.err != nil {
			return nil, b.err
		}
		return nil, fmt.Errorf("bad magic: %w", ErrSchema)
	}
	if v := b.u8(); v != indexVersion {
		if b.err != nil {
			return nil, b.err
		}
		return nil, fmt.Errorf("unsupported version %d: %w", v, ErrSchema)
	}
	flags := b.u8()
	ix := &index.Index{
		Zoned: flags&flagZoned != 0,
		Analyzer: tokenizer.Options{
			StopWords: flags&flagStopWords != 0,
			Stemming:  flags&flagStemming != 0,
		},
		ChampionSize: int(b.u32()),
		Terms:        make(map[string]*index.PostingList),
		Docs:         make(map[string]*index.DocStats),
	}

	nZones := int(b.u32())
	for i := 0; i < nZones && b.err == nil; i++ {
		ix.Zones = append(ix.Zones, models.Zone(b.str()))
	}
	if ix.Zoned != (nZones > 0) {
		if b.err != nil {
			return nil, b.err
		}
		return nil, fmt.Errorf("zone flag and zone list disagree: %w", ErrSchema)
	}

	nDocs := int(b.u32())
	for i := 0; i < nDocs && b.err == nil; i++ {
		id := b.str()
		stats := &index.DocStats{Name: b.str(), Norm: b.f64()}
		if ix.Zoned {
			stats.ZoneNorms = make(map[models.Zone]float64, nZones)
			for _, zone := range ix.Zones {
				stats.ZoneNorms[zone] = b.f64()
			}
		}
		ix.Docs[id] = stats
	}

	nTerms := int(b.u32())
	for i := 0; i < nTerms && b.err == nil; i++ {
		term := b.str()
		df := int(b.u32())
		pl := &index.PostingList{}
		if ix.Zoned {
			pl.ZoneDF = make(map[models.Zone]uint32, nZones)
			for _, zone := range ix.Zones {
				if zdf := b.u32(); zdf > 0 {
					pl.ZoneDF[zone] = zdf
				}
			}
		}
		pl.Postings = make([]index.Posting, 0, df)
		for j := 0; j < df && b.err == nil; j++ {
			p := index.Posting{DocID: b.str(), TF: b.u32()}
			if ix.Zoned {
				p.ZoneTF = make(map[models.Zone]uint32, nZones)
				for _, zone := range ix.Zones {
					if ztf := b.u32(); ztf > 0 {
						p.ZoneTF[zone] = ztf
					}
				}
			}
			pl.Postings = append(pl.Postings, p)
		}
		ix.Terms[term] = pl
	}

	nChamp := int(b.u32())
	if nChamp > 0 {
		ix.Champions = make(map[string][]string, nChamp)
	}
	for i := 0; i < nChamp && b.err == nil; i++ {
		term := b.str()
		n := int(b.u32())
		ids := make([]string, 0, n)
		for j := 0; j < n && b.err == nil; j++ {
			ids = append(ids, b.str())
		}
		ix.Champions[term] = ids
	}

	if b.err != nil {
		if b.err == io.EOF || b.err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated artifact: %w", ErrSchema)
		}
		return nil, b.err
	}
	return ix, nil
}
