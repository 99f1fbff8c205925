// Package util
//
// This file provides an indexed priority queue used to evict whole sessions.
//
// This implementation combines a binary heap with a hash map to provide both
// efficient priority-based operations and key-based access. Every item keeps
// its own position in the heap, so an item found by key can be repositioned
// in O(log n) after its priority changed.
//
// Time Complexity:
//   - O(log n) for priority operations (Push, Pop, Update)
//   - O(1) for key-based lookups and existence checks
//   - O(log n) for key-based removal
//
// Invariants after every exported call:
//   - every parent has a priority <= its children (min-heap)
//   - the key map and the heap slice hold exactly the same items and every
//     item's index is its position in the slice
//
// Note: This implementation is not thread-safe. For concurrent use, external
// synchronization should be applied.
//
// Example usage:
//
//	// Create a new queue
//	sessions := NewMapHeap[*Bundle]()
//
//	// Add items with session tokens and access timestamps
//	sessions.AddItem("token-a", time.Now().UnixNano(), bundleA)
//	sessions.AddItem("token-b", time.Now().UnixNano(), bundleB)
//
//	// Refresh an item on access
//	_ = sessions.UpdatePriority("token-a", time.Now().UnixNano())
//
//	// Evict the least recently accessed item
//	oldest, ok := sessions.PopItem()
package util

import (
	"container/heap"
	"errors"
	"strconv"
)

// ErrKeyNotFound is returned when a priority update targets a key that is
// not in the heap.
var ErrKeyNotFound = errors.New("key not found in heap")

// Item represents an entry of the queue with a string key for identification,
// an int64 priority and an arbitrary payload.
type Item[V any] struct {
	Key      string // Unique identifier for the item
	Priority int64  // Priority used for ordering in the heap
	Value    V      // Payload
	index    int    // Index in the heap, maintained by heap package
}

func (i *Item[V]) String() string {
	return "{Key: " + i.Key + ", Priority: " + strconv.FormatInt(i.Priority, 10) + "}"
}

// MapHeap implements a min priority queue with both heap operations and
// key-based access
type MapHeap[V any] struct {
	items    []*Item[V]          // The actual heap slice
	itemsMap map[string]*Item[V] // Map for O(1) access by key
}

// NewMapHeap creates a new, empty queue. It is ready for use, calling
// heap.Init on it is not required.
func NewMapHeap[V any]() *MapHeap[V] {
	return &MapHeap[V]{
		items:    make([]*Item[V], 0),
		itemsMap: make(map[string]*Item[V]),
	}
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

// Len returns the number of items in the queue (part of heap.Interface)
func (mh *MapHeap[V]) Len() int { return len(mh.items) }

// Less compares items by priority (part of heap.Interface)
func (mh *MapHeap[V]) Less(i, j int) bool {
	return mh.items[i].Priority < mh.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (mh *MapHeap[V]) Swap(i, j int) {
	mh.items[i], mh.items[j] = mh.items[j], mh.items[i]
	mh.items[i].index = i
	mh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (mh *MapHeap[V]) Push(x any) {
	n := len(mh.items)
	it := x.(*Item[V])
	it.index = n
	mh.items = append(mh.items, it)
	mh.itemsMap[it.Key] = it
}

// Pop removes and returns the last item (part of heap.Interface)
func (mh *MapHeap[V]) Pop() any {
	old := mh.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // Avoid memory leak
	it.index = -1
	mh.items = old[:n-1]
	delete(mh.itemsMap, it.Key)
	return it
}

// --------------------------------------------------------------------------
// Queue operations
// --------------------------------------------------------------------------

// AddItem adds a new item to the queue or updates the priority and value of
// an existing one
func (mh *MapHeap[V]) AddItem(key string, priority int64, value V) {
	if it, exists := mh.itemsMap[key]; exists {
		it.Value = value
		mh.fix(it, priority)
		return
	}

	heap.Push(mh, &Item[V]{
		Key:      key,
		Priority: priority,
		Value:    value,
	})
}

// PopItem removes and returns the item with the lowest priority
func (mh *MapHeap[V]) PopItem() (*Item[V], bool) {
	if len(mh.items) == 0 {
		return nil, false
	}
	return heap.Pop(mh).(*Item[V]), true
}

// UpdatePriority changes the priority of an existing item and restores the
// heap order. It returns ErrKeyNotFound if the key is absent.
func (mh *MapHeap[V]) UpdatePriority(key string, priority int64) error {
	it, exists := mh.itemsMap[key]
	if !exists {
		return ErrKeyNotFound
	}
	mh.fix(it, priority)
	return nil
}

// RemoveByKey removes an item by its key
func (mh *MapHeap[V]) RemoveByKey(key string) (*Item[V], bool) {
	it, exists := mh.itemsMap[key]
	if !exists {
		return nil, false
	}

	heap.Remove(mh, it.index)
	return it, true
}

// Peek returns the minimum item without removing it
func (mh *MapHeap[V]) Peek() (*Item[V], bool) {
	if len(mh.items) == 0 {
		return nil, false
	}
	return mh.items[0], true
}

// Contains checks if a key exists in the queue
func (mh *MapHeap[V]) Contains(key string) bool {
	_, exists := mh.itemsMap[key]
	return exists
}

// GetByKey retrieves an item by its key without removing it
func (mh *MapHeap[V]) GetByKey(key string) (*Item[V], bool) {
	it, exists := mh.itemsMap[key]
	return it, exists
}

// Values returns the payloads of all items in heap order
func (mh *MapHeap[V]) Values() []V {
	values := make([]V, 0, len(mh.items))
	for _, it := range mh.items {
		values = append(values, it.Value)
	}
	return values
}

// fix sets the new priority and moves the item up or down as needed
func (mh *MapHeap[V]) fix(it *Item[V], priority int64) {
	if it.Priority == priority {
		return
	}
	it.Priority = priority
	heap.Fix(mh, it.index)
}
