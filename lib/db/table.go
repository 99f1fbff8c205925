package db

import (
	"iter"
	"sort"
	"strconv"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db")

// Record is implemented by every value stored in a Table. The table assigns
// the id on insert, records are expected to be pointers so that the table and
// its callers share one instance.
type Record interface {
	SetID(id string)
}

// Table is a capacity-bounded collection of records with auto-assigned
// decimal ids. When an insert pushes the size over the capacity, the least
// recently used record is evicted. Inserts and successful reads count as use.
//
// Table is not safe for concurrent use.
type Table[T Record] struct {
	capacity int
	maxIDLen int
	counter  uint64
	evicted  uint64
	entries  *simplelru.LRU // recency order, oldest first
}

// NewTable creates an empty table holding at most capacity records whose ids
// are at most maxIDLen characters long.
func NewTable[T Record](capacity, maxIDLen int) (*Table[T], error) {
	if capacity <= 0 {
		return nil, NewError(RetCInvalidConfiguration, "invalid value for capacity: "+strconv.Itoa(capacity))
	}
	if maxIDLen <= 0 {
		return nil, NewError(RetCInvalidConfiguration, "invalid value for max id length: "+strconv.Itoa(maxIDLen))
	}

	t := &Table[T]{
		capacity: capacity,
		maxIDLen: maxIDLen,
		counter:  1,
	}

	entries, err := simplelru.NewLRU(capacity, nil)
	if err != nil {
		return nil, NewError(RetCInvalidConfiguration, err.Error())
	}
	t.entries = entries

	return t, nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Insert assigns the next id to rec, stores it and returns the id. If the
// table is full the least recently used record is dropped. Once the counter
// no longer fits into the maximum id length every further insert fails with
// ErrIdentifierOverflow.
func (t *Table[T]) Insert(rec T) (string, error) {
	raw := strconv.FormatUint(t.counter, 10)
	if len(raw) > t.maxIDLen {
		return "", ErrIdentifierOverflow
	}

	id, err := NormalizeID(t.counter, t.maxIDLen)
	if err != nil {
		return "", err
	}
	t.counter++

	rec.SetID(id)
	if evicted := t.entries.Add(id, rec); evicted {
		t.evicted++
		Logger.Debugf("table full, evicted least recently used record before %s", id)
	}
	return id, nil
}

// Delete removes the record stored under key. It reports whether a record
// was removed.
func (t *Table[T]) Delete(key any) (bool, error) {
	id, err := NormalizeID(key, t.maxIDLen)
	if err != nil {
		return false, err
	}
	return t.entries.Remove(id), nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the record stored under key and marks it as most recently used.
func (t *Table[T]) Get(key any) (T, bool, error) {
	var zero T
	id, err := NormalizeID(key, t.maxIDLen)
	if err != nil {
		return zero, false, err
	}

	v, ok := t.entries.Get(id)
	if !ok {
		return zero, false, nil
	}
	return v.(T), true, nil
}

// Keys returns the ids of all live records in insertion order.
// It does not affect the recency order.
func (t *Table[T]) Keys() []string {
	keys := make([]string, 0, t.entries.Len())
	for _, k := range t.entries.Keys() {
		keys = append(keys, k.(string))
	}
	sort.Slice(keys, func(i, j int) bool { return idLess(keys[i], keys[j]) })
	return keys
}

// Values returns all live records in insertion order.
// It does not affect the recency order.
func (t *Table[T]) Values() []T {
	keys := t.Keys()
	values := make([]T, 0, len(keys))
	for _, k := range keys {
		v, _ := t.entries.Peek(k)
		values = append(values, v.(T))
	}
	return values
}

// Items iterates over a snapshot of (id, record) pairs in insertion order.
// Mutating the table while iterating is allowed and does not affect the
// snapshot.
func (t *Table[T]) Items() iter.Seq2[string, T] {
	keys := t.Keys()
	values := t.Values()
	return func(yield func(string, T) bool) {
		for i, k := range keys {
			if !yield(k, values[i]) {
				return
			}
		}
	}
}

// Recency returns the ids ordered from least to most recently used.
func (t *Table[T]) Recency() []string {
	keys := make([]string, 0, t.entries.Len())
	for _, k := range t.entries.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Len returns the number of live records.
func (t *Table[T]) Len() int { return t.entries.Len() }

// Capacity returns the maximum number of records.
func (t *Table[T]) Capacity() int { return t.capacity }

// Evicted returns how many records were dropped to make room for new ones.
func (t *Table[T]) Evicted() uint64 { return t.evicted }

// idLess orders decimal ids numerically without parsing them.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
