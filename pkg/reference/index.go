package reference

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

var (
	ErrNotFound    = errors.New("reference record not found")
	ErrDuplicateID = errors.New("reference record id already exists")
)

// Mode selects the fallback when no record scores above zero.
type Mode string

const (
	// ModeBest falls back to the single default record (first loaded).
	ModeBest Mode = "best"
	// ModeSimilar falls back to the whole collection.
	ModeSimilar Mode = "similar"
)

// ParseMode maps unknown values to ModeSimilar.
func ParseMode(s string) Mode {
	if Mode(s) == ModeBest {
		return ModeBest
	}
	return ModeSimilar
}

// Store persists one collection of records.
type Store interface {
	LoadAll(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, record Record) error
}

// Index is an in-memory, read-mostly collection of records of one kind.
type Index struct {
	kind   Kind
	scheme Scheme
	store  Store

	mu      sync.RWMutex
	records []Record
	byID    map[string]int

	// serializes Add so id assignment and persistence stay ordered
	addMu sync.Mutex
}

func NewIndex(kind Kind, scheme Scheme, store Store) *Index {
	return &Index{
		kind:   kind,
		scheme: scheme,
		store:  store,
		byID:   make(map[string]int),
	}
}

// Kind returns the kind of records held by this index.
func (i *Index) Kind() Kind {
	return i.kind
}

// Load replaces the in-memory collection with the store's contents.
func (i *Index) Load(ctx context.Context) error {
	if i.store == nil {
		return nil
	}
	loaded, err := i.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s records: %w", i.kind, err)
	}

	records := make([]Record, 0, len(loaded))
	byID := make(map[string]int, len(loaded))
	for _, r := range loaded {
		if r.ID == "" {
			continue
		}
		if _, dup := byID[r.ID]; dup {
			continue
		}
		r.Kind = i.kind
		byID[r.ID] = len(records)
		records = append(records, r.clone())
	}

	i.mu.Lock()
	i.records = records
	i.byID = byID
	i.mu.Unlock()
	return nil
}

// Add stores a new record, assigning an id when it has none.
func (i *Index) Add(ctx context.Context, rec Record) (Record, error) {
	i.addMu.Lock()
	defer i.addMu.Unlock()

	rec = rec.clone()
	rec.Kind = i.kind
	if rec.Attributes == nil {
		rec.Attributes = Attributes{}
	}

	i.mu.RLock()
	if rec.ID == "" {
		rec.ID = i.nextIDLocked()
	} else if _, exists := i.byID[rec.ID]; exists {
		i.mu.RUnlock()
		return Record{}, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	i.mu.RUnlock()

	if rec.Title == "" {
		rec.Title = rec.ID
	}

	if i.store != nil {
		if err := i.store.Save(ctx, rec); err != nil {
			return Record{}, fmt.Errorf("save %s %s: %w", i.kind, rec.ID, err)
		}
	}

	i.mu.Lock()
	i.byID[rec.ID] = len(i.records)
	i.records = append(i.records, rec)
	i.mu.Unlock()

	return rec.clone(), nil
}

// nextIDLocked returns "<kind>_<count+1>", skipping ids already taken.
func (i *Index) nextIDLocked() string {
	n := len(i.records) + 1
	for {
		id := i.kind.idPrefix() + strconv.Itoa(n)
		if _, taken := i.byID[id]; !taken {
			return id
		}
		n++
	}
}

// Get returns the record with the given id.
func (i *Index) Get(id string) (Record, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	idx, ok := i.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return i.records[idx].clone(), nil
}

// Len returns the number of records.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records)
}

// List returns summaries newest first. Records without a date sort last;
// equal dates keep insertion order.
func (i *Index) List() []Summary {
	i.mu.RLock()
	out := make([]Summary, len(i.records))
	for n, r := range i.records {
		out[n] = r.summary()
	}
	i.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		da, db := out[a].Date, out[b].Date
		if da == "" || db == "" {
			return da != "" && db == ""
		}
		return da > db
	})
	return out
}

// Search ranks records against query. Only positive scores are returned,
// highest first with insertion order breaking ties. When nothing scores,
// mode decides the fallback. topK <= 0 means no limit.
func (i *Index) Search(query Attributes, topK int, mode Mode) []Match {
	i.mu.RLock()
	records := make([]Record, len(i.records))
	copy(records, i.records)
	i.mu.RUnlock()

	var matches []Match
	for _, r := range records {
		if score := i.scheme.Score(query, r.Attributes); score > 0 {
			matches = append(matches, Match{Record: r, Score: score})
		}
	}

	if len(matches) == 0 {
		matches = fallback(records, mode)
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	out := make([]Match, len(matches))
	for n, m := range matches {
		out[n] = Match{Record: m.Record.clone(), Score: m.Score}
	}
	return out
}

func fallback(records []Record, mode Mode) []Match {
	if len(records) == 0 {
		return nil
	}
	if mode == ModeBest {
		return []Match{{Record: records[0]}}
	}
	out := make([]Match, len(records))
	for n, r := range records {
		out[n] = Match{Record: r}
	}
	return out
}
