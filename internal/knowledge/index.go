package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
)

var (
	chunkPrefix = []byte("chunk/")
	chunkEnd    = []byte("chunk0") // '0' sorts right after '/'
)

type Chunk struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

type Match struct {
	Chunk
	Distance float64
}

// Index is an on-disk store of embedded chunks searched with exact L2 distance.
type Index struct {
	lock sync.RWMutex
	db   *pebble.DB
}

func OpenIndex(dir string) (*Index, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("error opening index at '%s': %w", dir, err)
	}
	return &Index{db: db}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

func chunkKey(i int) []byte {
	return fmt.Appendf(nil, "%s%08d", chunkPrefix, i)
}

// Replace removes every stored chunk and writes chunks in a single batch.
func (idx *Index) Replace(chunks []Chunk) error {
	idx.lock.Lock()
	defer idx.lock.Unlock()

	batch := idx.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(chunkPrefix, chunkEnd, nil); err != nil {
		return fmt.Errorf("error clearing index: %w", err)
	}

	for i, chunk := range chunks {
		value, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("error encoding chunk %d: %w", i, err)
		}
		if err := batch.Set(chunkKey(i), value, nil); err != nil {
			return fmt.Errorf("error writing chunk %d: %w", i, err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("error committing index: %w", err)
	}
	return nil
}

func (idx *Index) scan(fn func(Chunk) error) error {
	iter, err := idx.db.NewIter(&pebble.IterOptions{LowerBound: chunkPrefix, UpperBound: chunkEnd})
	if err != nil {
		return fmt.Errorf("error reading index: %w", err)
	}

	for iter.First(); iter.Valid(); iter.Next() {
		var chunk Chunk
		if err := json.Unmarshal(iter.Value(), &chunk); err != nil {
			iter.Close()
			return fmt.Errorf("error decoding chunk '%s': %w", iter.Key(), err)
		}
		if err := fn(chunk); err != nil {
			iter.Close()
			return err
		}
	}

	return iter.Close()
}

func (idx *Index) Len() (int, error) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()

	n := 0
	err := idx.scan(func(Chunk) error {
		n++
		return nil
	})
	return n, err
}

// Search returns the k chunks nearest to query, closest first.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()

	var matches []Match
	err := idx.scan(func(chunk Chunk) error {
		if len(chunk.Vector) != len(query) {
			return fmt.Errorf("embedding dimension mismatch: index has %d, query has %d", len(chunk.Vector), len(query))
		}
		matches = append(matches, Match{Chunk: chunk, Distance: l2Distance(chunk.Vector, query)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
